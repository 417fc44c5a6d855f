package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prexsyn/engine/internal/app"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
)

// NewServeCmd returns "prexsyn serve": the worker process entrypoint.
// It bootstraps every infrastructure connection the engine needs (run
// ledger, distributed lock/cache, event stream, cache object store,
// metrics, admin gRPC transport), starts the DataPipeline, and blocks
// until SIGINT/SIGTERM.
func NewServeCmd() *cobra.Command {
	var watchIngest bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline worker process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if cliCtx.Config.ChemSpace.CacheDir == "" {
				return errors.New(errors.CodeInvalidParam, "chemspace.cache_dir must be configured to serve")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Bootstrap(ctx, cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if watchIngest {
				go func() {
					if err := a.RunIngestWatcher(ctx); err != nil {
						cliCtx.Logger.Error("ingestion watcher stopped", logging.Err(err))
					}
				}()
			}

			cliCtx.Logger.Info("prexsyn worker starting")
			if err := a.Run(ctx); err != nil {
				return err
			}
			cliCtx.Logger.Info("prexsyn worker stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&watchIngest, "watch-ingest", false,
		"rebuild and hot-swap the chemical space when building_block.ingested/reaction.ingested events arrive")

	return cmd
}
