package commands

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TopAnalyzer/pkg/capturing"
)

var (
	snapshotOutput   string
	snapshotCount    int
	snapshotInterval time.Duration
)

// NewSnapshotCmd creates the snapshot subcommand.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"ss"},
		Short:   "Write top-style snapshots of the running processes",
		Long: `Write blocks of twelve-column process lines in the layout top uses in batch
mode, readable by ingest. CPU usage is measured between consecutive blocks.

Example:
  topan snapshot
  topan snapshot --count 0 --interval 1s -o top.log   # until interrupted`,
		Args: cobra.NoArgs,
		RunE: runSnapshot,
	}

	cmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&snapshotCount, "count", "n", 1, "Number of blocks (0 = until interrupted)")
	cmd.Flags().DurationVarP(&snapshotInterval, "interval", "d", 3*time.Second, "Delay between blocks")
	cmd.Flags().IntVarP(&Cfg.Workers, "workers", "w", Cfg.Workers, "Processes inspected in parallel (0 = number of CPUs)")

	return cmd
}

func runSnapshot(cmd *cobra.Command, args []string) (err error) {
	if snapshotInterval <= 0 {
		return errors.Errorf("interval must be positive, got %s", snapshotInterval)
	}

	var w io.Writer = cmd.OutOrStdout()
	if snapshotOutput != "" {
		f, err := os.OpenFile(snapshotOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrap(err, "open output")
		}
		defer func() { err = errors.Combine(err, f.Close()) }()
		w = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := capturing.New(capturing.WithWorkers(Cfg.Workers), capturing.WithLogger(log.StandardLogger()))
	if err := c.Run(ctx, w, snapshotCount, snapshotInterval); err != nil {
		return err
	}
	if snapshotOutput != "" {
		log.WithField("path", snapshotOutput).Info("snapshots written")
	}
	return nil
}
