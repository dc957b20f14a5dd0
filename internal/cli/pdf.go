package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/lhamgr/internal/logger"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/lhapdf"
	"github.com/glorpus-work/lhamgr/pkg/manager"
)

// NewLookupCmd creates the lookup command.
func NewLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup ID",
		Short: "Resolve an LHAPDF ID",
		Long:  "Resolve a numeric LHAPDF ID to a PDF set name and member, refreshing the index when the ID is unknown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runLookup(cmd, id)
		},
	}

	return cmd
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s' is not a number", pkgerrors.ErrUnknownID, arg)
	}
	return id, nil
}

func runLookup(cmd *cobra.Command, id int) error {
	mgr, stop, err := loadManager(cmd)
	if err != nil {
		return err
	}

	name, member, ok, err := mgr.LookupPDF(cmd.Context(), id)
	stop()
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.ErrUnknownIDWithValue(id)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s/%d\n", name, member)
	return nil
}

// NewPDFCmd creates the pdf command.
func NewPDFCmd() *cobra.Command {
	var id int

	cmd := &cobra.Command{
		Use:   "pdf [SET[/MEMBER]]",
		Short: "Load a PDF member",
		Long:  "Load one member of a PDF set, downloading the set if it is not installed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idGiven := cmd.Flags().Changed("id")
			if idGiven == (len(args) == 1) {
				return fmt.Errorf("specify either SET[/MEMBER] or --id")
			}
			return runPDF(cmd, args, idGiven, id)
		},
	}

	cmd.Flags().IntVar(&id, "id", 0, "LHAPDF ID of the member")

	return cmd
}

func runPDF(cmd *cobra.Command, args []string, byID bool, id int) error {
	mgr, stop, err := loadManager(cmd)
	if err != nil {
		return err
	}

	var pdf *lhapdf.PDF
	if byID {
		pdf, err = mgr.MkPDFByID(cmd.Context(), id)
	} else {
		pdf, err = mgr.MkPDFByNmem(cmd.Context(), args[0])
	}
	stop()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintf(w, "PDF:\t%s\n", pdf)
	_, _ = fmt.Fprintf(w, "LHAPDF ID:\t%d\n", pdf.LHAPDFID())
	_, _ = fmt.Fprintf(w, "Type:\t%s\n", pdf.Type())
	_, _ = fmt.Fprintf(w, "Flavors:\t%s\n", joinInts(pdf.Flavors()))
	_, _ = fmt.Fprintf(w, "x range:\t[%g, %g]\n", pdf.XMin(), pdf.XMax())
	return w.Flush()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

// NewSetCmd creates the set command.
func NewSetCmd() *cobra.Command {
	var members bool

	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Show a PDF set",
		Long:  "Show the metadata of a PDF set, downloading it if it is not installed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, args[0], members)
		},
	}

	cmd.Flags().BoolVar(&members, "members", false, "Load and list every member")

	return cmd
}

func runSet(cmd *cobra.Command, name string, members bool) error {
	mgr, stop, err := loadManager(cmd)
	if err != nil {
		return err
	}

	set, err := mgr.NewPDFSet(cmd.Context(), name)
	var pdfs []*lhapdf.PDF
	if err == nil && members {
		pdfs, err = mgr.MkPDFs(cmd.Context(), name)
	}
	stop()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", set.Name())
	_, _ = fmt.Fprintf(w, "Description:\t%s\n", set.Description())
	_, _ = fmt.Fprintf(w, "LHAPDF ID:\t%d\n", set.LHAPDFID())
	_, _ = fmt.Fprintf(w, "Members:\t%d\n", set.Size())
	_, _ = fmt.Fprintf(w, "Error type:\t%s\n", set.ErrorType())
	for _, pdf := range pdfs {
		_, _ = fmt.Fprintf(w, "  %d\t%s\n", pdf.Member(), pdf.Type())
	}
	return w.Flush()
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch NAME...",
		Short: "Download PDF sets",
		Long:  "Install PDF sets into the write directory. Sets already installed are not downloaded again",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFetch,
	}

	return cmd
}

func runFetch(cmd *cobra.Command, names []string) error {
	mgr, stop, err := loadManager(cmd)
	if err != nil {
		return err
	}

	outcomes := make([]manager.Outcome, len(names))
	var failed []string
	for i, name := range names {
		outcomes[i], err = mgr.EnsureSet(cmd.Context(), name)
		if err != nil {
			logger.Error("Failed to fetch PDF set", logger.Fields{"set": name, "error": err})
			failed = append(failed, name)
		}
		if cmd.Context().Err() != nil {
			break
		}
	}
	stop()

	for i, name := range names {
		if outcomes[i] != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, outcomes[i])
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("could not fetch %s", strings.Join(failed, ", "))
	}
	return nil
}

// NewVerbosityCmd creates the verbosity command.
func NewVerbosityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verbosity [LEVEL]",
		Short: "Show or set the library verbosity",
		Long:  "Show the library verbosity, or set it for this process and show the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVerbosity,
	}

	return cmd
}

func runVerbosity(cmd *cobra.Command, args []string) error {
	mgr, stop, err := loadManager(cmd)
	if err != nil {
		return err
	}
	defer stop()

	if len(args) == 1 {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid verbosity level '%s'", args[0])
		}
		mgr.SetVerbosity(level)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), mgr.Verbosity())
	return nil
}
