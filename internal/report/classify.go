package report

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-cli/internal/gap"
	"github.com/sells-group/compliance-cli/internal/model"
)

// Classification pairs a classifier input with its result.
type Classification struct {
	Input          gap.Input               `json:"input"`
	Classification model.GapClassification `json:"classification"`
}

// WriteClassification renders a single gap classification.
func WriteClassification(w io.Writer, c Classification, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, c)
	case FormatTable:
		r := c.Classification
		_, err := fmt.Fprintf(w,
			"Score:           %.2f\nFoundational:    %s\nSection weight:  %.2f\n\nSeverity:        %s\nPriority score:  %.2f\nPriority:        %s\nEffort:          %s\nCost:            %s\n",
			c.Input.Score, yesNo(c.Input.IsFoundational), c.Input.SectionWeight,
			r.Severity, r.PriorityScore, r.Priority, r.Effort, r.Cost)
		return eris.Wrap(err, "report: write classification")
	default:
		return eris.Errorf("report: format %q not supported for classifications", f)
	}
}
