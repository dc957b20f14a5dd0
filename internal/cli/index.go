package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/lhamgr/internal/logger"
)

// NewIndexCmd creates the index command with subcommands.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the LHAPDF ID index",
		Long:  "Maintain the pdfsets.index file used to resolve numeric LHAPDF IDs",
	}

	cmd.AddCommand(newIndexRefreshCmd())

	return cmd
}

func newIndexRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download the latest index",
		Long:  "Replace the local pdfsets.index with the one published at index_url",
		Args:  cobra.NoArgs,
		RunE:  runIndexRefresh,
	}

	return cmd
}

func runIndexRefresh(cmd *cobra.Command, _ []string) error {
	mgr, stop, err := loadManager(cmd)
	if err != nil {
		return err
	}

	err = mgr.RefreshIndex(cmd.Context())
	stop()
	if err != nil {
		return err
	}

	logger.Success("Index refreshed", logger.Fields{"url": mgr.Config().IndexURL})
	return nil
}
