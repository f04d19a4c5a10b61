package store

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/compliance-cli/internal/db"
	"github.com/sells-group/compliance-cli/internal/model"
)

// Bundle is a YAML fixture of templates and assessments to import.
type Bundle struct {
	Templates   []model.Template   `yaml:"templates"`
	Assessments []model.Assessment `yaml:"assessments"`
}

// LoadBundle decodes a bundle from r, fills in generated IDs and positions,
// and validates its references.
func LoadBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if err == io.EOF {
			return nil, eris.New("store: bundle is empty")
		}
		return nil, eris.Wrap(err, "store: decode bundle")
	}
	b.normalize(time.Now().UTC())
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadBundleFile reads a bundle from a YAML file.
func LoadBundleFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open bundle %s", path)
	}
	defer f.Close() //nolint:errcheck
	return LoadBundle(f)
}

// derivedID returns a stable name-based UUID so re-importing a bundle
// without explicit IDs updates rows instead of duplicating them.
func derivedID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(parts, "/"))).String()
}

// normalize assigns missing IDs, parent links and positions.
func (b *Bundle) normalize(now time.Time) {
	for ti := range b.Templates {
		tmpl := &b.Templates[ti]
		if tmpl.ID == "" {
			tmpl.ID = derivedID("template", tmpl.Name)
		}
		for si := range tmpl.Sections {
			sec := &tmpl.Sections[si]
			if sec.ID == "" {
				sec.ID = derivedID(tmpl.ID, "section", strconv.Itoa(si))
			}
			sec.TemplateID = tmpl.ID
			sec.Position = si
			for qi := range sec.Questions {
				q := &sec.Questions[qi]
				if q.ID == "" {
					q.ID = derivedID(sec.ID, "question", strconv.Itoa(qi))
				}
				q.SectionID = sec.ID
				q.Position = qi
			}
		}
	}

	for ai := range b.Assessments {
		a := &b.Assessments[ai]
		if a.ID == "" {
			a.ID = derivedID("assessment", a.TemplateID, a.OrganizationID, strconv.Itoa(ai))
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		for ri := range a.Answers {
			ans := &a.Answers[ri]
			if ans.ID == "" {
				ans.ID = derivedID(a.ID, "answer", ans.QuestionID)
			}
			ans.AssessmentID = a.ID
			for di := range ans.Documents {
				if ans.Documents[di].ID == "" {
					ans.Documents[di].ID = derivedID(ans.ID, "document", strconv.Itoa(di))
				}
			}
		}
	}
}

func validWeight(w float64) bool {
	return !math.IsNaN(w) && w >= 0 && w <= 1
}

// Validate checks required fields and in-bundle references. Assessments
// may reference templates that are already stored; their answers are
// then not checked against the template's questions.
func (b *Bundle) Validate() error {
	var errs []string

	questions := map[string]map[string]bool{}
	for _, tmpl := range b.Templates {
		qs := map[string]bool{}
		for _, sec := range tmpl.Sections {
			if !validWeight(sec.Weight) {
				errs = append(errs, fmt.Sprintf("section %s: weight %.4f outside [0,1]", sec.ID, sec.Weight))
			}
			for _, q := range sec.Questions {
				if !validWeight(q.Weight) {
					errs = append(errs, fmt.Sprintf("question %s: weight %.4f outside [0,1]", q.ID, q.Weight))
				}
				qs[q.ID] = true
			}
		}
		questions[tmpl.ID] = qs
	}

	for _, a := range b.Assessments {
		if a.TemplateID == "" {
			errs = append(errs, fmt.Sprintf("assessment %s: template_id is required", a.ID))
			continue
		}
		known, inBundle := questions[a.TemplateID]
		seen := map[string]bool{}
		for _, ans := range a.Answers {
			switch {
			case ans.QuestionID == "":
				errs = append(errs, fmt.Sprintf("answer %s: question_id is required", ans.ID))
			case seen[ans.QuestionID]:
				errs = append(errs, fmt.Sprintf("assessment %s: duplicate answer for question %s", a.ID, ans.QuestionID))
			case inBundle && !known[ans.QuestionID]:
				errs = append(errs, fmt.Sprintf("answer %s: question %s not in template %s", ans.ID, ans.QuestionID, a.TemplateID))
			}
			seen[ans.QuestionID] = true
			if ans.RawQualityScore != nil && (math.IsNaN(*ans.RawQualityScore) || *ans.RawQualityScore < 0 || *ans.RawQualityScore > 5) {
				errs = append(errs, fmt.Sprintf("answer %s: raw_quality_score %.2f outside [0,5]", ans.ID, *ans.RawQualityScore))
			}
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("store: invalid bundle: %s", strings.Join(errs, "; "))
	}
	return nil
}

// importTable pairs an upsert statement with the bundle rows it writes.
type importTable struct {
	cfg  db.UpsertConfig
	rows [][]any
}

// importTables flattens the bundle into per-table upsert batches, parents
// first.
func (b *Bundle) importTables() []importTable {
	templates := importTable{cfg: db.UpsertConfig{
		Table: "templates", Columns: []string{"id", "name"}, ConflictKeys: []string{"id"},
	}}
	sections := importTable{cfg: db.UpsertConfig{
		Table:        "sections",
		Columns:      []string{"id", "template_id", "name", "weight", "position"},
		ConflictKeys: []string{"id"},
	}}
	questions := importTable{cfg: db.UpsertConfig{
		Table:        "questions",
		Columns:      []string{"id", "section_id", "text", "weight", "is_foundational", "position"},
		ConflictKeys: []string{"id"},
	}}
	assessments := importTable{cfg: db.UpsertConfig{
		Table:        "assessments",
		Columns:      []string{"id", "template_id", "organization_id", "created_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"template_id", "organization_id"},
	}}
	answers := importTable{cfg: db.UpsertConfig{
		Table:        "answers",
		Columns:      []string{"id", "assessment_id", "question_id", "raw_quality_score"},
		ConflictKeys: []string{"id"},
	}}
	documents := importTable{cfg: db.UpsertConfig{
		Table:        "evidence_documents",
		Columns:      []string{"id", "answer_id", "name", "evidence_tier"},
		ConflictKeys: []string{"id"},
	}}

	for _, tmpl := range b.Templates {
		templates.rows = append(templates.rows, []any{tmpl.ID, tmpl.Name})
		for _, sec := range tmpl.Sections {
			sections.rows = append(sections.rows, []any{sec.ID, tmpl.ID, sec.Name, sec.Weight, sec.Position})
			for _, q := range sec.Questions {
				questions.rows = append(questions.rows, []any{q.ID, sec.ID, q.Text, q.Weight, q.IsFoundational, q.Position})
			}
		}
	}
	for _, a := range b.Assessments {
		assessments.rows = append(assessments.rows, []any{a.ID, a.TemplateID, a.OrganizationID, a.CreatedAt})
		for _, ans := range a.Answers {
			answers.rows = append(answers.rows, []any{ans.ID, a.ID, ans.QuestionID, nullableFloat(ans.RawQualityScore)})
			for _, d := range ans.Documents {
				documents.rows = append(documents.rows, []any{d.ID, ans.ID, d.Name, tierValue(d.EvidenceTier)})
			}
		}
	}

	return []importTable{templates, sections, questions, assessments, answers, documents}
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// record stores the row count written for table t.
func (r *ImportResult) record(table string, n int) {
	switch table {
	case "templates":
		r.Templates = n
	case "sections":
		r.Sections = n
	case "questions":
		r.Questions = n
	case "assessments":
		r.Assessments = n
	case "answers":
		r.Answers = n
	case "evidence_documents":
		r.Documents = n
	}
}
