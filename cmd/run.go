package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/internal/batch"
	"github.com/sells-group/roadprox-cli/internal/model"
	"github.com/sells-group/roadprox-cli/internal/pipeline"
	"github.com/sells-group/roadprox-cli/internal/resilience"
)

var (
	runLimit           int
	runUnprocessedOnly bool
	runDryRun          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch occurrences, resolve nearest-road distances, and write them back",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runLimit > 0 {
			cfg.Warehouse.FetchLimit = runLimit
		}
		if cmd.Flags().Changed("unprocessed-only") {
			cfg.Warehouse.UnprocessedOnly = runUnprocessedOnly
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		wh, err := initWarehouse(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "init warehouse")
		}
		defer wh.Close() //nolint:errcheck

		resolver, _, closeResolver := initResolver(ctx, cfg)
		defer closeResolver()

		pacer := resilience.NewPacer(cfg.Overpass.Interval(), cfg.Overpass.Burst)
		opts := []pipeline.Option{pipeline.WithDryRun(runDryRun)}

		arch, err := initArchiver(cfg)
		if err != nil {
			zap.L().Warn("archive disabled", zap.Error(err))
		} else if arch != nil {
			opts = append(opts, pipeline.WithArchiver(arch))
		}

		p := pipeline.New(wh, wh, batch.NewProcessor(resolver, pacer), opts...)
		result, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		return writeRunResult(os.Stdout, result)
	},
}

// writeRunResult prints the run summary as indented JSON.
func writeRunResult(w io.Writer, result *model.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func init() {
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "maximum records to fetch (default from warehouse.fetch_limit, at most 1000)")
	runCmd.Flags().BoolVar(&runUnprocessedOnly, "unprocessed-only", false, "only fetch records not yet processed")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "resolve distances without writing or archiving")
	rootCmd.AddCommand(runCmd)
}
