package scoring

import "github.com/sells-group/compliance-cli/internal/model"

// ScoreAnswer computes the tier-adjusted score of an answer. A nil answer
// is scored as unanswered: zero quality at Tier0. Weight and foundational
// flags are left unset; ScoreQuestion fills them from the question.
func ScoreAnswer(answer *model.Answer, tiers TierTable) model.QuestionScore {
	if answer == nil {
		return model.QuestionScore{
			EvidenceTier:   model.Tier0,
			TierMultiplier: tiers.Multiplier(model.Tier0),
		}
	}

	tier := BestTier(answer.Tiers())
	mult := tiers.Multiplier(tier)
	raw := answer.Quality()

	return model.QuestionScore{
		AnswerID:        answer.ID,
		QuestionID:      answer.QuestionID,
		RawQualityScore: raw,
		EvidenceTier:    tier,
		TierMultiplier:  mult,
		FinalScore:      raw * mult,
	}
}

// ScoreQuestion computes the score of question q given its answer, which
// may be nil when the question was not answered in the assessment.
func ScoreQuestion(q model.Question, answer *model.Answer, tiers TierTable) model.QuestionScore {
	qs := ScoreAnswer(answer, tiers)
	qs.QuestionID = q.ID
	qs.Weight = q.Weight
	qs.IsFoundational = q.IsFoundational
	return qs
}
