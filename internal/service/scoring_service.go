package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RecalculationResult struct {
	FormID          uint            `json:"formId"`
	SubmissionCount int             `json:"submissionCount"`
	UpdatedCount    int             `json:"updatedCount"`
	TotalScore      decimal.Decimal `json:"totalScore"`
}

type SubmissionScore struct {
	SubmissionID uint            `json:"submissionId"`
	FormID       uint            `json:"formId"`
	Total        decimal.Decimal `json:"total"`
	ScoredAt     *time.Time      `json:"scoredAt,omitempty"`
	Breakdown    []QuestionScore `json:"breakdown"`
}

type ScoringService struct {
	forms       FormStore
	submissions SubmissionStore
	events      EventPublisher
	now         func() time.Time
}

func NewScoringService(forms FormStore, submissions SubmissionStore, events EventPublisher) *ScoringService {
	return &ScoringService{
		forms:       forms,
		submissions: submissions,
		events:      events,
		now:         time.Now,
	}
}

// Recalculate 按当前的选项/列分值重算表单的全部提交。
// 全部结果在一个事务中覆盖写入，任一失败则不落库，重复执行结果一致。
func (s *ScoringService) Recalculate(ctx context.Context, formID uint) (*RecalculationResult, error) {
	start := time.Now()

	form, err := s.forms.LoadStructure(ctx, formID)
	if err != nil {
		return nil, err
	}
	structure := model.NewFormStructure(form)

	// 没有提交时不加载答案也不开事务
	count, err := s.submissions.CountByForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		logger.Log.Info("No submissions to recalculate", zap.Uint("formId", formID))
		return &RecalculationResult{FormID: formID, TotalScore: decimal.Zero}, nil
	}

	subs, err := s.submissions.ListAllByForm(ctx, formID, repository.SubmissionFilter{})
	if err != nil {
		return nil, err
	}

	result := &RecalculationResult{FormID: formID, SubmissionCount: len(subs), TotalScore: decimal.Zero}
	updates := make([]model.ScoreUpdate, 0, len(subs))
	for i := range subs {
		update, changed := rescore(structure, &subs[i])
		updates = append(updates, update)
		if changed {
			result.UpdatedCount++
		}
		result.TotalScore = result.TotalScore.Add(update.TotalScore)
	}

	if err := s.submissions.BulkUpdateScores(ctx, updates, s.now()); err != nil {
		logger.Log.Error("Score recalculation failed", zap.Uint("formId", formID), zap.Error(err))
		return nil, err
	}

	monitoring.RecalculationDuration.Observe(time.Since(start).Seconds())
	logger.Log.Info("Scores recalculated",
		zap.Uint("formId", formID),
		zap.Int("submissions", result.SubmissionCount),
		zap.Int("updated", result.UpdatedCount),
	)
	s.events.Publish(ctx, EventScoringRecalculated, result)
	return result, nil
}

// rescore 题目已被删除的答案记 0
func rescore(structure *model.FormStructure, sub *model.Submission) (model.ScoreUpdate, bool) {
	update := model.ScoreUpdate{
		SubmissionID: sub.ID,
		TotalScore:   decimal.Zero,
		AnswerScores: make(map[uint]decimal.Decimal, len(sub.Answers)),
	}
	changed := false
	for i := range sub.Answers {
		answer := &sub.Answers[i]
		score := decimal.Zero
		if q, ok := structure.Questions[answer.QuestionID]; ok {
			submitted := AnswerFromModel(answer)
			score = AnswerScore(q, &submitted)
		}
		if !score.Equal(answer.Score) {
			changed = true
		}
		update.AnswerScores[answer.ID] = score
		update.TotalScore = update.TotalScore.Add(score)
	}
	if !update.TotalScore.Equal(sub.TotalScore) {
		changed = true
	}
	return update, changed
}

func (s *ScoringService) GetSubmissionScore(ctx context.Context, submissionID uint) (*SubmissionScore, error) {
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	score := &SubmissionScore{
		SubmissionID: sub.ID,
		FormID:       sub.FormID,
		Total:        sub.TotalScore,
		ScoredAt:     sub.ScoredAt,
		Breakdown:    make([]QuestionScore, 0, len(sub.Answers)),
	}
	for _, a := range sub.Answers {
		score.Breakdown = append(score.Breakdown, QuestionScore{QuestionID: a.QuestionID, Score: a.Score})
	}
	return score, nil
}
