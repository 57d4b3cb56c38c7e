package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SubmitRequest struct {
	RespondentRef string            `json:"respondentRef" binding:"max=255"`
	Answers       []SubmittedAnswer `json:"answers" binding:"dive"`
}

type SubmitResult struct {
	SubmissionID uint            `json:"submissionId"`
	Status       string          `json:"status"`
	TotalScore   decimal.Decimal `json:"totalScore"`
	Breakdown    []QuestionScore `json:"breakdown"`
	Evaluation   *RuleEvaluation `json:"evaluation"`
}

type SubmissionService struct {
	forms       FormStore
	rules       RuleStore
	submissions SubmissionStore
	events      EventPublisher
}

func NewSubmissionService(forms FormStore, rules RuleStore, submissions SubmissionStore, events EventPublisher) *SubmissionService {
	return &SubmissionService{forms: forms, rules: rules, submissions: submissions, events: events}
}

// PublishedForm 按公开 key 读取已发布表单的结构，未发布视为不存在
func (s *SubmissionService) PublishedForm(ctx context.Context, publicKey string) (*model.Form, error) {
	form, err := s.forms.FindByPublicKey(ctx, publicKey)
	if err != nil {
		return nil, err
	}
	if !form.IsPublished {
		return nil, util.NotFoundf("form %s", publicKey)
	}
	return s.forms.LoadStructure(ctx, form.ID)
}

func (s *SubmissionService) Submit(ctx context.Context, publicKey string, req *SubmitRequest) (*SubmitResult, error) {
	form, err := s.PublishedForm(ctx, publicKey)
	if err != nil {
		return nil, err
	}
	structure := model.NewFormStructure(form)

	answers, err := normalizeAnswers(structure, req.Answers)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.ListByForm(ctx, form.ID)
	if err != nil {
		return nil, err
	}
	eval, err := EvaluateRules(structure, rules, answers)
	if err != nil {
		monitoring.RuleEvaluations.WithLabelValues("error").Inc()
		logger.Log.Error("Rule evaluation failed", zap.Uint("formId", form.ID), zap.Error(err))
		return nil, err
	}
	monitoring.RuleEvaluations.WithLabelValues("ok").Inc()

	// 隐藏题、被跳过页和终止之后的作答既不计分也不保存
	kept := make([]SubmittedAnswer, 0, len(answers))
	for _, a := range answers {
		if eval.Active(structure, structure.Questions[a.QuestionID]) {
			kept = append(kept, a)
		}
	}

	if err := checkRequired(structure, eval, kept); err != nil {
		return nil, err
	}

	score := ScoreAnswers(structure, kept)
	sub, err := buildSubmission(structure, req.RespondentRef, kept, eval, score)
	if err != nil {
		return nil, err
	}
	if err := s.submissions.CreateWithAnswers(ctx, sub); err != nil {
		return nil, err
	}

	monitoring.SubmissionsTotal.WithLabelValues(sub.Status).Inc()
	logger.Log.Info("Submission created",
		zap.Uint("formId", form.ID),
		zap.Uint("submissionId", sub.ID),
		zap.String("status", sub.Status),
	)

	result := &SubmitResult{
		SubmissionID: sub.ID,
		Status:       sub.Status,
		TotalScore:   score.Total,
		Breakdown:    score.Breakdown,
		Evaluation:   eval,
	}
	s.events.Publish(ctx, EventSubmissionCreated, map[string]interface{}{
		"formId":       form.ID,
		"submissionId": sub.ID,
		"status":       sub.Status,
		"totalScore":   score.Total,
	})
	return result, nil
}

// normalizeAnswers 校验作答归属与取值，去掉空作答与重复选择
func normalizeAnswers(s *model.FormStructure, answers []SubmittedAnswer) ([]SubmittedAnswer, error) {
	seen := make(map[uint]struct{}, len(answers))
	out := make([]SubmittedAnswer, 0, len(answers))
	for _, a := range answers {
		q, ok := s.Questions[a.QuestionID]
		if !ok {
			return nil, util.NewValidationError("answers", "question %d does not belong to this form", a.QuestionID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return nil, util.NewValidationError("answers", "question %d answered more than once", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}

		clean := SubmittedAnswer{QuestionID: q.ID}
		switch {
		case q.Type.IsChoice():
			picked := make(map[uint]struct{}, len(a.OptionIDs))
			for _, id := range a.OptionIDs {
				if q.FindOption(id) == nil {
					return nil, util.NewValidationError("answers", "option %d does not belong to question %d", id, q.ID)
				}
				if _, dup := picked[id]; dup {
					continue
				}
				picked[id] = struct{}{}
				clean.OptionIDs = append(clean.OptionIDs, id)
			}
			if q.Type.SingleChoice() && len(clean.OptionIDs) > 1 {
				return nil, util.NewValidationError("answers", "question %d accepts a single option", q.ID)
			}
		case q.Type == model.QuestionMatrix:
			picked := make(map[MatrixSelection]struct{}, len(a.Matrix))
			for _, cell := range a.Matrix {
				if q.FindRow(cell.RowID) == nil || q.FindColumn(cell.ColumnID) == nil {
					return nil, util.NewValidationError("answers", "cell %d/%d does not belong to question %d", cell.RowID, cell.ColumnID, q.ID)
				}
				if _, dup := picked[cell]; dup {
					continue
				}
				picked[cell] = struct{}{}
				clean.Matrix = append(clean.Matrix, cell)
			}
		case q.Type == model.QuestionSlider:
			if a.Value.Valid {
				if q.SliderMin.Valid && a.Value.Decimal.LessThan(q.SliderMin.Decimal) ||
					q.SliderMax.Valid && a.Value.Decimal.GreaterThan(q.SliderMax.Decimal) {
					return nil, util.NewValidationError("answers", "value for question %d is out of range", q.ID)
				}
				clean.Value = a.Value
			}
		case q.Type == model.QuestionDate:
			if d := strings.TrimSpace(a.Date); d != "" {
				if _, err := time.Parse(util.DateFormat, d); err != nil {
					return nil, util.NewValidationError("answers", "date for question %d must be YYYY-MM-DD", q.ID)
				}
				clean.Date = d
			}
		default:
			clean.Text = strings.TrimSpace(a.Text)
		}

		if hasValue(q, &clean) {
			out = append(out, clean)
		}
	}
	return out, nil
}

func hasValue(q *model.Question, a *SubmittedAnswer) bool {
	switch {
	case q.Type.IsChoice():
		return len(a.OptionIDs) > 0
	case q.Type == model.QuestionMatrix:
		return len(a.Matrix) > 0
	case q.Type == model.QuestionSlider:
		return a.Value.Valid
	case q.Type == model.QuestionDate:
		return a.Date != ""
	}
	return a.Text != ""
}

// checkRequired 被隐藏、跳过或终止之后的必答题不做要求
func checkRequired(s *model.FormStructure, eval *RuleEvaluation, answers []SubmittedAnswer) error {
	answered := make(map[uint]struct{}, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = struct{}{}
	}
	var missing []string
	for _, q := range s.OrderedQuestions() {
		if !q.Required || !eval.Active(s, q) {
			continue
		}
		if _, ok := answered[q.ID]; !ok {
			missing = append(missing, q.Title)
		}
	}
	if len(missing) > 0 {
		return util.NewValidationError("answers", "required questions not answered: %s", strings.Join(missing, ", "))
	}
	return nil
}

func buildSubmission(s *model.FormStructure, respondent string, answers []SubmittedAnswer, eval *RuleEvaluation, score ScoreResult) (*model.Submission, error) {
	status := model.SubmissionCompleted
	if eval.Terminate {
		status = model.SubmissionTerminated
	}
	sub := &model.Submission{
		FormID:        s.Form.ID,
		RespondentRef: strings.TrimSpace(respondent),
		Status:        status,
		TotalScore:    score.Total,
		Answers:       make([]model.Answer, 0, len(answers)),
	}
	now := time.Now()
	sub.ScoredAt = &now

	for i := range answers {
		a := &answers[i]
		q := s.Questions[a.QuestionID]
		answer := model.Answer{QuestionID: q.ID, Score: AnswerScore(q, a)}
		switch {
		case q.Type.IsChoice():
			for _, id := range a.OptionIDs {
				optionID := id
				answer.Values = append(answer.Values, model.AnswerValue{OptionID: &optionID})
			}
		case q.Type == model.QuestionMatrix:
			for _, cell := range a.Matrix {
				row, col := cell.RowID, cell.ColumnID
				answer.Values = append(answer.Values, model.AnswerValue{MatrixRowID: &row, MatrixColumnID: &col})
			}
		case q.Type == model.QuestionSlider:
			answer.Values = append(answer.Values, model.AnswerValue{NumericValue: a.Value})
		case q.Type == model.QuestionDate:
			d, err := time.Parse(util.DateFormat, a.Date)
			if err != nil {
				return nil, util.NewValidationError("answers", "invalid date for question %d", q.ID)
			}
			answer.Values = append(answer.Values, model.AnswerValue{DateValue: &d})
		default:
			answer.Values = append(answer.Values, model.AnswerValue{TextValue: a.Text})
		}
		sub.Answers = append(sub.Answers, answer)
	}
	return sub, nil
}

func (s *SubmissionService) List(ctx context.Context, formID uint, page, limit int) ([]model.Submission, int64, error) {
	if _, err := s.forms.FindByID(ctx, formID); err != nil {
		return nil, 0, err
	}
	return s.submissions.ListByForm(ctx, formID, page, limit)
}

func (s *SubmissionService) Get(ctx context.Context, id uint) (*model.Submission, error) {
	return s.submissions.FindByID(ctx, id)
}

func (s *SubmissionService) Delete(ctx context.Context, id uint) error {
	if err := s.submissions.Delete(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("Submission deleted", zap.Uint("submissionId", id))
	return nil
}
