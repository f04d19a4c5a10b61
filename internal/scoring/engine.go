package scoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/compliance-cli/internal/config"
	"github.com/sells-group/compliance-cli/internal/model"
)

// Operation names reported to a Recorder.
const (
	OpQuestion = "question"
	OpSection  = "section"
	OpOverall  = "overall"
)

// Lookup fetches the data the engine scores. Implementations return an
// error wrapping ErrNotFound for missing entities.
type Lookup interface {
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	// GetTemplate returns the template with sections and questions
	// ordered by position.
	GetTemplate(ctx context.Context, id string) (*model.Template, error)
	GetSection(ctx context.Context, id string) (*model.Section, error)
	GetAnswer(ctx context.Context, id string) (*model.Answer, error)
	// ListAnswers returns the answers of an assessment for the given
	// questions, keyed by question ID. Unanswered questions are absent.
	ListAnswers(ctx context.Context, assessmentID string, questionIDs []string) (map[string]*model.Answer, error)
}

// Sink receives computed scores for caching. Sink failures never fail a
// computation.
type Sink interface {
	SaveQuestionScores(ctx context.Context, scores []model.QuestionScore) error
	SaveOverallScore(ctx context.Context, score *model.OverallScore) error
}

// Recorder observes engine operations, typically for metrics.
type Recorder interface {
	ObserveOperation(op string, elapsed time.Duration, err error)
	ObserveRiskBand(band model.RiskBand)
}

// Engine adapts the pure scoring functions to a Lookup backend.
type Engine struct {
	lookup   Lookup
	sink     Sink
	recorder Recorder
	tracer   trace.Tracer
	tiers    TierTable
	cfg      config.ScoringConfig
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink enables write-back of computed scores.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithRecorder reports operation timings and risk bands to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithTracer replaces the default OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithClock overrides the clock used for OverallScore.CalculatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine reading from lookup with the given config.
func NewEngine(lookup Lookup, cfg config.ScoringConfig, opts ...Option) *Engine {
	e := &Engine{
		lookup: lookup,
		tracer: otel.Tracer("compliance-scoring"),
		tiers:  NewTierTable(cfg.TierMultipliers),
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tiers returns the engine's tier multiplier table.
func (e *Engine) Tiers() TierTable {
	return e.tiers
}

// ComputeQuestionScore scores a single answer by ID.
func (e *Engine) ComputeQuestionScore(ctx context.Context, answerID string) (qs *model.QuestionScore, err error) {
	ctx, span := e.tracer.Start(ctx, "Engine.ComputeQuestionScore",
		trace.WithAttributes(attribute.String("answer.id", answerID)))
	defer e.observe(OpQuestion, span, time.Now(), &err)

	answer, err := e.lookup.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: question score for answer %s", answerID)
	}

	score := ScoreAnswer(answer, e.tiers)
	span.SetAttributes(
		attribute.String("evidence.tier", score.EvidenceTier.String()),
		attribute.Float64("score.final", score.FinalScore),
	)
	e.saveQuestionScores(ctx, []model.QuestionScore{score})
	return &score, nil
}

// ComputeSectionScore scores one section of a template within an assessment.
func (e *Engine) ComputeSectionScore(ctx context.Context, sectionID, assessmentID string) (ss *model.SectionScore, err error) {
	ctx, span := e.tracer.Start(ctx, "Engine.ComputeSectionScore",
		trace.WithAttributes(
			attribute.String("section.id", sectionID),
			attribute.String("assessment.id", assessmentID),
		))
	defer e.observe(OpSection, span, time.Now(), &err)

	section, err := e.lookup.GetSection(ctx, sectionID)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: section score for %s", sectionID)
	}

	score, err := e.computeSection(ctx, section, assessmentID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Float64("score.scaled", score.ScaledScore))
	e.saveQuestionScores(ctx, score.QuestionScores)
	return &score, nil
}

// ComputeOverallScore scores every section of an assessment's template and
// aggregates them. Sections are scored concurrently; any failure aborts the
// whole computation and no partial score is returned.
func (e *Engine) ComputeOverallScore(ctx context.Context, assessmentID string) (result *model.OverallScore, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "Engine.ComputeOverallScore",
		trace.WithAttributes(attribute.String("assessment.id", assessmentID)))
	defer e.observe(OpOverall, span, start, &err)

	assessment, err := e.lookup.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: overall score for assessment %s", assessmentID)
	}
	tmpl, err := e.lookup.GetTemplate(ctx, assessment.TemplateID)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: overall score for assessment %s", assessmentID)
	}

	log := zap.L().With(
		zap.String("assessment_id", assessmentID),
		zap.String("template_id", tmpl.ID),
	)

	var sections []model.SectionScore
	if len(tmpl.Sections) == 0 {
		log.Warn("scoring: template has no sections, reporting critical risk")
	} else {
		if err := ValidateWeights(tmpl.SectionWeights(), "template "+tmpl.ID, e.cfg.WeightTolerance); err != nil {
			return nil, err
		}
		sections, err = e.computeSections(ctx, tmpl, assessmentID)
		if err != nil {
			return nil, err
		}
	}

	overall, err := Aggregate(assessmentID, tmpl, sections)
	if err != nil {
		return nil, err
	}
	overall.CalculatedAt = e.now()
	span.SetAttributes(
		attribute.Float64("score.overall", overall.OverallScore),
		attribute.String("risk.band", string(overall.RiskBand)),
		attribute.Int("sections", len(tmpl.Sections)),
	)

	for _, s := range overall.SectionScores {
		e.saveQuestionScores(ctx, s.QuestionScores)
	}
	e.saveOverallScore(ctx, &overall)
	if e.recorder != nil {
		e.recorder.ObserveRiskBand(overall.RiskBand)
	}

	log.Info("scoring: overall score computed",
		zap.Float64("score", overall.OverallScore),
		zap.String("risk_band", string(overall.RiskBand)),
		zap.Int("sections", len(tmpl.Sections)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &overall, nil
}

// computeSections scores the template's sections concurrently, keeping
// results in template order.
func (e *Engine) computeSections(ctx context.Context, tmpl *model.Template, assessmentID string) ([]model.SectionScore, error) {
	results := make([]model.SectionScore, len(tmpl.Sections))

	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.MaxConcurrentSections > 0 {
		g.SetLimit(e.cfg.MaxConcurrentSections)
	}
	for i := range tmpl.Sections {
		g.Go(func() error {
			s, err := e.computeSection(gctx, &tmpl.Sections[i], assessmentID)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// computeSection validates a section's question weights, fetches its answers
// and aggregates its question scores.
func (e *Engine) computeSection(ctx context.Context, section *model.Section, assessmentID string) (model.SectionScore, error) {
	if len(section.Questions) == 0 {
		zap.L().Warn("scoring: section has no questions, scoring as zero",
			zap.String("section_id", section.ID),
			zap.String("assessment_id", assessmentID),
		)
		return scoreValidatedSection(section, nil, e.tiers)
	}

	if err := ValidateWeights(section.QuestionWeights(), "section "+section.ID, e.cfg.WeightTolerance); err != nil {
		return model.SectionScore{}, err
	}

	answers, err := e.lookup.ListAnswers(ctx, assessmentID, section.QuestionIDs())
	if err != nil {
		return model.SectionScore{}, eris.Wrapf(err, "scoring: answers for section %s", section.ID)
	}
	return scoreValidatedSection(section, answers, e.tiers)
}

func (e *Engine) writeBackEnabled() bool {
	return e.sink != nil && e.cfg.WriteBack
}

// saveQuestionScores writes answered question scores back to the sink.
func (e *Engine) saveQuestionScores(ctx context.Context, scores []model.QuestionScore) {
	if !e.writeBackEnabled() {
		return
	}
	var answered []model.QuestionScore
	for _, qs := range scores {
		if qs.Answered() {
			answered = append(answered, qs)
		}
	}
	if len(answered) == 0 {
		return
	}
	if err := e.sink.SaveQuestionScores(ctx, answered); err != nil {
		zap.L().Warn("scoring: write back question scores failed",
			zap.Int("count", len(answered)),
			zap.Error(err),
		)
	}
}

func (e *Engine) saveOverallScore(ctx context.Context, score *model.OverallScore) {
	if !e.writeBackEnabled() {
		return
	}
	if err := e.sink.SaveOverallScore(ctx, score); err != nil {
		zap.L().Warn("scoring: write back overall score failed",
			zap.String("assessment_id", score.AssessmentID),
			zap.Error(err),
		)
	}
}

// observe ends the operation's span and reports it to the recorder.
func (e *Engine) observe(op string, span trace.Span, start time.Time, errp *error) {
	if err := *errp; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if e.recorder != nil {
		e.recorder.ObserveOperation(op, time.Since(start), *errp)
	}
}
