package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-cli/internal/store"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import templates and assessments from a YAML bundle",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		bundle, err := store.LoadBundleFile(importFile)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, "import")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := st.Import(ctx, bundle)
		if err != nil {
			return eris.Wrap(err, "import bundle")
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Int("templates", res.Templates),
			zap.Int("sections", res.Sections),
			zap.Int("questions", res.Questions),
			zap.Int("assessments", res.Assessments),
			zap.Int("answers", res.Answers),
			zap.Int("documents", res.Documents),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to YAML bundle (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
