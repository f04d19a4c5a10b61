package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/compliance-cli/internal/gap"
	"github.com/sells-group/compliance-cli/internal/model"
)

var gapHeader = []string{
	"section_id", "question_id", "score", "foundational", "section_weight",
	"severity", "priority_score", "priority", "effort", "cost",
}

func gapRecord(g model.Gap) []string {
	return []string{
		g.SectionID,
		g.QuestionID,
		fmt.Sprintf("%.2f", g.Score),
		fmt.Sprintf("%v", g.IsFoundational),
		fmt.Sprintf("%.4f", g.SectionWeight),
		string(g.Severity),
		fmt.Sprintf("%.2f", g.PriorityScore),
		string(g.Priority),
		string(g.Effort),
		string(g.Cost),
	}
}

// GapReport is the JSON shape of an identified gap list.
type GapReport struct {
	AssessmentID string      `json:"assessment_id"`
	Threshold    float64     `json:"threshold"`
	Summary      gap.Summary `json:"summary"`
	Gaps         []model.Gap `json:"gaps"`
}

// NewGapReport bundles gaps with their summary.
func NewGapReport(assessmentID string, threshold float64, gaps []model.Gap) GapReport {
	if gaps == nil {
		gaps = []model.Gap{}
	}
	return GapReport{
		AssessmentID: assessmentID,
		Threshold:    threshold,
		Summary:      gap.Summarize(gaps),
		Gaps:         gaps,
	}
}

// WriteGaps renders a prioritized gap list.
func WriteGaps(w io.Writer, r GapReport, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatCSV:
		rows := make([][]string, len(r.Gaps))
		for i, g := range r.Gaps {
			rows[i] = gapRecord(g)
		}
		return writeCSV(w, gapHeader, rows)
	case FormatXLSX:
		return writeGapsXLSX(w, r)
	case FormatTable:
		return writeGapTable(w, r)
	default:
		return eris.Errorf("report: format %q not supported for gaps", f)
	}
}

func writeGapTable(w io.Writer, r GapReport) error {
	if _, err := fmt.Fprintf(w, "%-20s %-24s %6s %-9s %6s %-12s %-7s %-16s\n",
		"Section", "Question", "Score", "Severity", "Prio", "Bucket", "Effort", "Cost"); err != nil {
		return eris.Wrap(err, "report: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 108)); err != nil {
		return eris.Wrap(err, "report: write table separator")
	}
	for _, g := range r.Gaps {
		question := g.QuestionID
		if g.IsFoundational {
			question += "*"
		}
		if _, err := fmt.Fprintf(w, "%-20s %-24s %6.2f %-9s %6.2f %-12s %-7s %-16s\n",
			truncate(g.SectionID, 20), truncate(question, 24), g.Score, g.Severity,
			g.PriorityScore, g.Priority, g.Effort, g.Cost); err != nil {
			return eris.Wrap(err, "report: write table row")
		}
	}

	s := r.Summary
	_, err := fmt.Fprintf(w, "\n%d gaps below %.2f (critical %d, high %d, medium %d, low %d). * = foundational\n",
		s.Total, r.Threshold,
		s.BySeverity[model.SeverityCritical], s.BySeverity[model.SeverityHigh],
		s.BySeverity[model.SeverityMedium], s.BySeverity[model.SeverityLow])
	return eris.Wrap(err, "report: write summary")
}

func writeGapsXLSX(w io.Writer, r GapReport) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Gaps")
	if err != nil {
		return eris.Wrap(err, "report: add gaps sheet")
	}

	header := sheet.AddRow()
	for _, h := range gapHeader {
		header.AddCell().SetString(h)
	}
	for _, g := range r.Gaps {
		row := sheet.AddRow()
		row.AddCell().SetString(g.SectionID)
		row.AddCell().SetString(g.QuestionID)
		row.AddCell().SetFloat(g.Score)
		row.AddCell().SetString(fmt.Sprintf("%v", g.IsFoundational))
		row.AddCell().SetFloat(g.SectionWeight)
		row.AddCell().SetString(string(g.Severity))
		row.AddCell().SetFloat(g.PriorityScore)
		row.AddCell().SetString(string(g.Priority))
		row.AddCell().SetString(string(g.Effort))
		row.AddCell().SetString(string(g.Cost))
	}

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addPair := func(k string, v int) {
		row := summary.AddRow()
		row.AddCell().SetString(k)
		row.AddCell().SetInt(v)
	}
	meta := summary.AddRow()
	meta.AddCell().SetString("assessment_id")
	meta.AddCell().SetString(r.AssessmentID)
	addPair("total", r.Summary.Total)
	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		addPair(strings.ToLower(string(sev)), r.Summary.BySeverity[sev])
	}

	return eris.Wrap(f.Write(w), "report: write XLSX")
}
