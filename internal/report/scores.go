package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-cli/internal/model"
)

var questionHeader = []string{
	"section_id", "question_id", "answer_id", "raw_quality_score", "evidence_tier",
	"tier_multiplier", "final_score", "weight", "foundational",
}

func questionRecord(sectionID string, q model.QuestionScore) []string {
	return []string{
		sectionID,
		q.QuestionID,
		q.AnswerID,
		fmt.Sprintf("%.2f", q.RawQualityScore),
		q.EvidenceTier.String(),
		fmt.Sprintf("%.2f", q.TierMultiplier),
		fmt.Sprintf("%.4f", q.FinalScore),
		fmt.Sprintf("%.4f", q.Weight),
		fmt.Sprintf("%v", q.IsFoundational),
	}
}

// WriteOverall renders an overall score with its per-question breakdown.
func WriteOverall(w io.Writer, o *model.OverallScore, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, o)
	case FormatCSV:
		var rows [][]string
		for _, s := range o.SectionScores {
			for _, q := range s.QuestionScores {
				rows = append(rows, questionRecord(s.SectionID, q))
			}
		}
		return writeCSV(w, questionHeader, rows)
	case FormatTable:
		if _, err := fmt.Fprintf(w, "Assessment:  %s\nScore:       %.2f / 100\nRisk band:   %s\nCalculated:  %s\n\n",
			o.AssessmentID, o.OverallScore, o.RiskBand, o.CalculatedAt.Format(time.RFC3339)); err != nil {
			return eris.Wrap(err, "report: write overall header")
		}
		if err := writeSectionTable(w, o.SectionScores); err != nil {
			return err
		}
		for _, s := range o.SectionScores {
			if _, err := fmt.Fprintf(w, "\n[%s]\n", s.SectionID); err != nil {
				return eris.Wrap(err, "report: write section heading")
			}
			if err := writeQuestionTable(w, s.QuestionScores); err != nil {
				return err
			}
		}
		return nil
	default:
		return eris.Errorf("report: format %q not supported for scores", f)
	}
}

// WriteSection renders one section score.
func WriteSection(w io.Writer, s *model.SectionScore, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatCSV:
		rows := make([][]string, len(s.QuestionScores))
		for i, q := range s.QuestionScores {
			rows[i] = questionRecord(s.SectionID, q)
		}
		return writeCSV(w, questionHeader, rows)
	case FormatTable:
		if err := writeSectionTable(w, []model.SectionScore{*s}); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return eris.Wrap(err, "report: write table")
		}
		return writeQuestionTable(w, s.QuestionScores)
	default:
		return eris.Errorf("report: format %q not supported for scores", f)
	}
}

// WriteQuestion renders one question score.
func WriteQuestion(w io.Writer, q *model.QuestionScore, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, q)
	case FormatCSV:
		return writeCSV(w, questionHeader, [][]string{questionRecord("", *q)})
	case FormatTable:
		return writeQuestionTable(w, []model.QuestionScore{*q})
	default:
		return eris.Errorf("report: format %q not supported for scores", f)
	}
}

func writeSectionTable(w io.Writer, sections []model.SectionScore) error {
	if _, err := fmt.Fprintf(w, "%-30s %8s %8s %8s %10s\n", "Section", "Weight", "Score", "Scaled", "Questions"); err != nil {
		return eris.Wrap(err, "report: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 68)); err != nil {
		return eris.Wrap(err, "report: write table separator")
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "%-30s %8.2f %8.2f %8.2f %10d\n",
			truncate(s.SectionID, 30), s.SectionWeight, s.Score, s.ScaledScore, len(s.QuestionScores)); err != nil {
			return eris.Wrap(err, "report: write table row")
		}
	}
	return nil
}

func writeQuestionTable(w io.Writer, scores []model.QuestionScore) error {
	if _, err := fmt.Fprintf(w, "%-30s %6s %-8s %6s %7s %7s %5s\n",
		"Question", "Raw", "Tier", "Mult", "Final", "Weight", "Fnd"); err != nil {
		return eris.Wrap(err, "report: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 75)); err != nil {
		return eris.Wrap(err, "report: write table separator")
	}
	for _, q := range scores {
		tier := q.EvidenceTier.String()
		if !q.Answered() {
			tier = "-"
		}
		if _, err := fmt.Fprintf(w, "%-30s %6.2f %-8s %6.2f %7.2f %7.2f %5s\n",
			truncate(q.QuestionID, 30), q.RawQualityScore, tier, q.TierMultiplier, q.FinalScore, q.Weight, yesNo(q.IsFoundational)); err != nil {
			return eris.Wrap(err, "report: write table row")
		}
	}
	return nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write CSV header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "report: write CSV rows")
	}
	return nil
}
