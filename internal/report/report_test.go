package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/compliance-cli/internal/gap"
	"github.com/sells-group/compliance-cli/internal/model"
)

func testOverall() *model.OverallScore {
	return &model.OverallScore{
		AssessmentID: "acme-2026",
		OverallScore: 47.6,
		RiskBand:     model.RiskHigh,
		CalculatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SectionScores: []model.SectionScore{
			{
				SectionID: "governance", Score: 2.9, ScaledScore: 58, SectionWeight: 0.6, TotalWeight: 1,
				QuestionScores: []model.QuestionScore{
					{AnswerID: "a1", QuestionID: "gov-policy", RawQualityScore: 4, EvidenceTier: model.Tier2, TierMultiplier: 1, FinalScore: 4, Weight: 0.5, IsFoundational: true},
					{QuestionID: "gov-review", TierMultiplier: 0.6, Weight: 0.5},
				},
			},
			{
				SectionID: "vendors", Score: 1.6, ScaledScore: 32, SectionWeight: 0.4, TotalWeight: 1,
				QuestionScores: []model.QuestionScore{
					{AnswerID: "a3", QuestionID: "ven-inventory", RawQualityScore: 2, EvidenceTier: model.Tier1, TierMultiplier: 0.8, FinalScore: 1.6, Weight: 1},
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ", FormatTable, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx", FormatTable, FormatCSV, FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "xlsx" (want table, csv, json)`)
}

func TestWriteOverall_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOverall(&buf, testOverall(), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Score:       47.60 / 100")
	assert.Contains(t, out, "Risk band:   High")
	assert.Contains(t, out, "2026-03-01T12:00:00Z")
	assert.Contains(t, out, "[governance]")
	assert.Contains(t, out, "gov-policy")
	assert.Contains(t, out, "TIER_2")
}

func TestWriteOverall_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOverall(&buf, testOverall(), FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, questionHeader, records[0])
	assert.Equal(t, []string{"governance", "gov-policy", "a1", "4.00", "TIER_2", "1.00", "4.0000", "0.5000", "true"}, records[1])
	assert.Equal(t, "vendors", records[3][0])
}

func TestWriteOverall_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOverall(&buf, testOverall(), FormatJSON))

	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "High", back["risk_band"])
	assert.InDelta(t, 47.6, back["overall_score"], 1e-9)
}

func TestWriteOverall_UnsupportedFormat(t *testing.T) {
	err := WriteOverall(&bytes.Buffer{}, testOverall(), FormatXLSX)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported for scores")
}

func TestWriteSectionAndQuestion(t *testing.T) {
	o := testOverall()

	var buf bytes.Buffer
	require.NoError(t, WriteSection(&buf, &o.SectionScores[1], FormatTable))
	assert.Contains(t, buf.String(), "vendors")
	assert.Contains(t, buf.String(), "ven-inventory")

	buf.Reset()
	require.NoError(t, WriteQuestion(&buf, &o.SectionScores[0].QuestionScores[1], FormatTable))
	assert.Contains(t, buf.String(), "gov-review")
	assert.Contains(t, buf.String(), " - ")

	buf.Reset()
	require.NoError(t, WriteQuestion(&buf, &o.SectionScores[0].QuestionScores[0], FormatCSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestWriteGaps(t *testing.T) {
	gaps := gap.Identify(testOverall(), 3.5)
	require.Len(t, gaps, 2)
	r := NewGapReport("acme-2026", 3.5, gaps)
	assert.Equal(t, 2, r.Summary.Total)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteGaps(&buf, r, FormatTable))
		assert.Contains(t, buf.String(), "gov-review")
		assert.Contains(t, buf.String(), "2 gaps below 3.50")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteGaps(&buf, r, FormatCSV))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, gapHeader, records[0])
		assert.Equal(t, "gov-review", records[1][1])
		assert.Equal(t, string(model.SeverityCritical), records[1][5])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteGaps(&buf, r, FormatJSON))
		var back GapReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, "acme-2026", back.AssessmentID)
		assert.Len(t, back.Gaps, 2)
	})

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteGaps(&buf, r, FormatXLSX))

		f, err := xlsx.OpenBinary(buf.Bytes())
		require.NoError(t, err)
		require.Len(t, f.Sheets, 2)

		sheet := f.Sheet["Gaps"]
		require.NotNil(t, sheet)
		require.Len(t, sheet.Rows, 3)
		assert.Equal(t, "section_id", sheet.Rows[0].Cells[0].String())
		assert.Equal(t, "gov-review", sheet.Rows[1].Cells[1].String())
		assert.Equal(t, "CRITICAL", sheet.Rows[1].Cells[5].String())

		summary := f.Sheet["Summary"]
		require.NotNil(t, summary)
		assert.Equal(t, "acme-2026", summary.Rows[0].Cells[1].String())
		assert.Equal(t, "2", summary.Rows[1].Cells[1].String())
	})
}

func TestWriteGaps_Empty(t *testing.T) {
	r := NewGapReport("a1", 3.5, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteGaps(&buf, r, FormatJSON))
	assert.Contains(t, buf.String(), `"gaps": []`)
}

func TestWriteClassification(t *testing.T) {
	in := gap.Input{Score: 1.0, IsFoundational: true, SectionWeight: 0.3}
	c := Classification{Input: in, Classification: gap.Classify(in)}

	var buf bytes.Buffer
	require.NoError(t, WriteClassification(&buf, c, FormatTable))
	assert.Contains(t, buf.String(), "Severity:        CRITICAL")
	assert.Contains(t, buf.String(), "Cost:            OVER_250K")

	buf.Reset()
	require.NoError(t, WriteClassification(&buf, c, FormatJSON))
	assert.Contains(t, buf.String(), `"priority": "IMMEDIATE"`)

	assert.Error(t, WriteClassification(&buf, c, FormatCSV))
}
