package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/cache"
	"github.com/glorpus-work/lhamgr/pkg/lock"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the PDF set cache",
		Long:  "Show information about the PDF set directories and remove leftovers of interrupted downloads",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
		newCacheListCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftovers of interrupted downloads",
		Long:  "Remove staging directories and temporary files. Installed PDF sets are never removed",
		Args:  cobra.NoArgs,
		RunE:  runCacheClean,
	}

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display information about the write directory",
		Args:  cobra.NoArgs,
		RunE:  runCacheInfo,
	}

	return cmd
}

func newCacheDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the write directory",
		Args:  cobra.NoArgs,
		RunE:  runCacheDir,
	}

	return cmd
}

func newCacheListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed PDF sets",
		Long:  "List the PDF sets found in every search directory",
		Args:  cobra.NoArgs,
		RunE:  runCacheList,
	}

	return cmd
}

func newCacheOperation() (*cache.Operation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	locks := lock.New(cfg.WriteDir, lock.WithTimeout(cfg.Settings.LockTimeout))
	return cache.NewOperation(cache.NewManager(cfg.WriteDir, cfg.ReadDirs), locks), nil
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	op, err := newCacheOperation()
	if err != nil {
		return err
	}

	msg, err := op.Clean(cmd.Context())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
	logger.Success("Cache cleaning completed", logger.Fields{"dir": op.GetDirectory()})
	return nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	op, err := newCacheOperation()
	if err != nil {
		return err
	}

	info, err := op.GetInfo()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
	return nil
}

func runCacheDir(cmd *cobra.Command, _ []string) error {
	op, err := newCacheOperation()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), op.GetDirectory())
	return nil
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	op, err := newCacheOperation()
	if err != nil {
		return err
	}

	out, err := op.List()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
