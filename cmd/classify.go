package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/compliance-cli/internal/gap"
	"github.com/sells-group/compliance-cli/internal/report"
)

var (
	classifyScore         float64
	classifyFoundational  bool
	classifySectionWeight float64
	classifyFormat        string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single gap without touching the store",
	Long: `Runs the gap classifiers on one score and prints its severity, priority,
remediation effort and cost range.

Example:
  classify --score 1.0 --foundational --section-weight 0.3`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := report.ParseFormat(classifyFormat, report.FormatTable, report.FormatJSON)
		if err != nil {
			return err
		}

		in := gap.Input{
			Score:          classifyScore,
			IsFoundational: classifyFoundational,
			SectionWeight:  classifySectionWeight,
		}
		if err := in.Validate(); err != nil {
			return err
		}

		return report.WriteClassification(cmd.OutOrStdout(), report.Classification{
			Input:          in,
			Classification: gap.Classify(in),
		}, format)
	},
}

func init() {
	f := classifyCmd.Flags()
	f.Float64Var(&classifyScore, "score", 0, "gap score on the 0-5 scale (required)")
	f.BoolVar(&classifyFoundational, "foundational", false, "the question is foundational")
	f.Float64Var(&classifySectionWeight, "section-weight", 0, "weight of the gap's section (0-1)")
	f.StringVar(&classifyFormat, "format", "table", "output format: table or json")
	_ = classifyCmd.MarkFlagRequired("score")
	rootCmd.AddCommand(classifyCmd)
}
