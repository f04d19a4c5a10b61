package main

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-cli/internal/config"
	"github.com/sells-group/compliance-cli/internal/monitoring"
	"github.com/sells-group/compliance-cli/internal/scoring"
	"github.com/sells-group/compliance-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "compliance-cli",
	Short: "Weighted compliance scoring and gap prioritization",
	Long:  "Scores compliance assessments from evidence-tiered answers, rolls them up by section and template weight, and ranks the gaps that need remediation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore validates the config for mode and connects to the store.
func openStore(ctx context.Context, mode string) (store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// newEngine builds a scoring engine over st, caching results back into it
// when write-back is enabled.
func newEngine(st store.Store, reg prometheus.Registerer) *scoring.Engine {
	return scoring.NewEngine(st, cfg.Scoring,
		scoring.WithSink(st),
		scoring.WithRecorder(monitoring.NewMetrics(reg)),
	)
}

// writeOutput runs write against the file at path, or the command's stdout
// when path is empty. The file is only created once there is something to
// write, and a failed close is reported.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create output file %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close output file %s", path)
	}
	return nil
}
