package main

import (
	"io"
	"math"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-cli/internal/gap"
	"github.com/sells-group/compliance-cli/internal/report"
)

var (
	gapsAssessment string
	gapsThreshold  float64
	gapsFormat     string
	gapsOutput     string
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "List prioritized remediation gaps for an assessment",
	Long: `Scores an assessment and lists every question whose tier-adjusted score
falls below the gap threshold, classified by severity, priority, effort and
cost, most urgent first.

Examples:
  gaps --assessment acme-2026
  gaps --assessment acme-2026 --threshold 3 --format xlsx --output gaps.xlsx`,
	RunE: runGaps,
}

func init() {
	f := gapsCmd.Flags()
	f.StringVar(&gapsAssessment, "assessment", "", "assessment ID (required)")
	f.Float64Var(&gapsThreshold, "threshold", 0, "gap threshold on the 0-5 scale (default from config)")
	f.StringVar(&gapsFormat, "format", "table", "output format: table, csv, json or xlsx")
	f.StringVar(&gapsOutput, "output", "", "output file path (default: stdout)")
	_ = gapsCmd.MarkFlagRequired("assessment")
	rootCmd.AddCommand(gapsCmd)
}

func runGaps(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, err := report.ParseFormat(gapsFormat,
		report.FormatTable, report.FormatCSV, report.FormatJSON, report.FormatXLSX)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && gapsOutput == "" {
		return eris.New("gaps: --output is required for xlsx")
	}

	threshold := cfg.Scoring.GapThreshold
	if cmd.Flags().Changed("threshold") {
		if math.IsNaN(gapsThreshold) || gapsThreshold < 0 || gapsThreshold > 5 {
			return eris.Errorf("gaps: --threshold must be between 0 and 5 (got %.2f)", gapsThreshold)
		}
		threshold = gapsThreshold
	}

	st, err := openStore(ctx, "score")
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	overall, err := newEngine(st, prometheus.NewRegistry()).ComputeOverallScore(ctx, gapsAssessment)
	if err != nil {
		return err
	}
	gaps := gap.Identify(overall, threshold)

	zap.L().Info("gaps identified",
		zap.String("assessment_id", gapsAssessment),
		zap.Float64("threshold", threshold),
		zap.Int("gaps", len(gaps)),
	)

	rep := report.NewGapReport(gapsAssessment, threshold, gaps)
	return writeOutput(cmd, gapsOutput, func(w io.Writer) error {
		return report.WriteGaps(w, rep, format)
	})
}
