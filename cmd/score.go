package main

import (
	"io"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-cli/internal/report"
)

var (
	scoreAssessment string
	scoreSection    string
	scoreAnswer     string
	scoreFormat     string
	scoreOutput     string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute question, section or overall assessment scores",
	Long: `Computes tier-adjusted scores for an assessment.

With only --assessment the overall 0-100 score and risk band are computed.
Add --section to score one section, or use --answer to score a single answer.

Examples:
  # Overall score as a table
  score --assessment acme-2026

  # One section as CSV
  score --assessment acme-2026 --section governance --format csv

  # A single answer as JSON
  score --answer ans-policy --format json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreAssessment, "assessment", "", "assessment ID")
	f.StringVar(&scoreSection, "section", "", "score a single section of the assessment")
	f.StringVar(&scoreAnswer, "answer", "", "score a single answer")
	f.StringVar(&scoreFormat, "format", "table", "output format: table, csv or json")
	f.StringVar(&scoreOutput, "output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, err := report.ParseFormat(scoreFormat, report.FormatTable, report.FormatCSV, report.FormatJSON)
	if err != nil {
		return err
	}
	switch {
	case scoreAnswer != "" && (scoreAssessment != "" || scoreSection != ""):
		return eris.New("score: --answer cannot be combined with --assessment or --section")
	case scoreAnswer == "" && scoreAssessment == "":
		return eris.New("score: --assessment or --answer is required")
	}

	st, err := openStore(ctx, "score")
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	engine := newEngine(st, prometheus.NewRegistry())
	log := zap.L().With(zap.String("command", "score"))

	var write func(io.Writer) error
	switch {
	case scoreAnswer != "":
		qs, err := engine.ComputeQuestionScore(ctx, scoreAnswer)
		if err != nil {
			return err
		}
		log.Debug("question scored", zap.String("answer_id", scoreAnswer), zap.Float64("final_score", qs.FinalScore))
		write = func(w io.Writer) error { return report.WriteQuestion(w, qs, format) }

	case scoreSection != "":
		ss, err := engine.ComputeSectionScore(ctx, scoreSection, scoreAssessment)
		if err != nil {
			return err
		}
		log.Debug("section scored", zap.String("section_id", scoreSection), zap.Float64("scaled_score", ss.ScaledScore))
		write = func(w io.Writer) error { return report.WriteSection(w, ss, format) }

	default:
		overall, err := engine.ComputeOverallScore(ctx, scoreAssessment)
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return report.WriteOverall(w, overall, format) }
	}

	return writeOutput(cmd, scoreOutput, write)
}
