package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/lhamgr/pkg/lhapdf"
)

const (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for lhamgr and the PDF library",
		Run:   runVersion,
	}

	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "lhamgr version %s\n", Version)
	_, _ = fmt.Fprintf(out, "Build date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(out, "Git commit: %s\n", GitCommit)

	libVersion := lhapdf.NewFileLibrary().Version()
	supported, _ := lhapdf.IsSupportedVersion(libVersion)
	status := "supported"
	if !supported {
		status = "unsupported"
	}
	_, _ = fmt.Fprintf(out, "LHAPDF library: %s (%s, requires %s)\n", libVersion, status, lhapdf.SupportedVersions)
}
