package service

import (
	"context"
	"errors"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RuleRequest struct {
	SourceQuestionID uint                `json:"sourceQuestionId" binding:"required"`
	TriggerOptionID  *uint               `json:"triggerOptionId"`
	MatrixRowID      *uint               `json:"matrixRowId"`
	MatrixColumnID   *uint               `json:"matrixColumnId"`
	Condition        model.ConditionType `json:"condition" binding:"required"`
	Value            decimal.NullDecimal `json:"value"`
	MinValue         decimal.NullDecimal `json:"minValue"`
	MaxValue         decimal.NullDecimal `json:"maxValue"`
	Action           model.ActionType    `json:"action" binding:"required"`
	TargetQuestionID *uint               `json:"targetQuestionId"`
	TargetPageID     *uint               `json:"targetPageId"`
	Order            int                 `json:"order"`
}

type EvaluateRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"dive"`
}

type RuleService struct {
	forms  FormStore
	rules  RuleStore
	events EventPublisher
}

func NewRuleService(forms FormStore, rules RuleStore, events EventPublisher) *RuleService {
	return &RuleService{forms: forms, rules: rules, events: events}
}

func (s *RuleService) Create(ctx context.Context, formID uint, req *RuleRequest) (*model.Rule, error) {
	form, err := s.forms.LoadStructure(ctx, formID)
	if err != nil {
		return nil, err
	}
	rule := &model.Rule{FormID: formID}
	applyRuleRequest(rule, req)
	if err := ValidateRuleInForm(model.NewFormStructure(form), rule); err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.changed(ctx, "created", rule)
	return rule, nil
}

func (s *RuleService) List(ctx context.Context, formID uint) ([]model.Rule, error) {
	if _, err := s.forms.FindByID(ctx, formID); err != nil {
		return nil, err
	}
	return s.rules.ListByForm(ctx, formID)
}

func (s *RuleService) Get(ctx context.Context, id uint) (*model.Rule, error) {
	return s.rules.FindByID(ctx, id)
}

func (s *RuleService) Update(ctx context.Context, id uint, req *RuleRequest) (*model.Rule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	form, err := s.forms.LoadStructure(ctx, rule.FormID)
	if err != nil {
		return nil, err
	}
	applyRuleRequest(rule, req)
	if err := ValidateRuleInForm(model.NewFormStructure(form), rule); err != nil {
		return nil, err
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}
	s.changed(ctx, "updated", rule)
	return rule, nil
}

func (s *RuleService) Delete(ctx context.Context, id uint) error {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "deleted", rule)
	return nil
}

// Evaluate 预览给定作答下的规则结果，不落库
func (s *RuleService) Evaluate(ctx context.Context, formID uint, req *EvaluateRequest) (*RuleEvaluation, error) {
	form, err := s.forms.LoadStructure(ctx, formID)
	if err != nil {
		return nil, err
	}
	structure := model.NewFormStructure(form)
	answers, err := normalizeAnswers(structure, req.Answers)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.ListByForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	eval, err := EvaluateRules(structure, rules, answers)
	if err != nil {
		monitoring.RuleEvaluations.WithLabelValues("error").Inc()
		logger.Log.Error("Rule evaluation failed", zap.Uint("formId", formID), zap.Error(err))
		return nil, err
	}
	monitoring.RuleEvaluations.WithLabelValues("ok").Inc()
	return eval, nil
}

func (s *RuleService) changed(ctx context.Context, op string, rule *model.Rule) {
	logger.Log.Info("Rule "+op, zap.Uint("formId", rule.FormID), zap.Uint("ruleId", rule.ID))
	s.events.Publish(ctx, EventRuleChanged, map[string]interface{}{
		"op":     op,
		"formId": rule.FormID,
		"ruleId": rule.ID,
	})
}

func applyRuleRequest(rule *model.Rule, req *RuleRequest) {
	rule.SourceQuestionID = req.SourceQuestionID
	rule.TriggerOptionID = req.TriggerOptionID
	rule.MatrixRowID = req.MatrixRowID
	rule.MatrixColumnID = req.MatrixColumnID
	rule.Condition = req.Condition
	rule.Value = req.Value
	rule.MinValue = req.MinValue
	rule.MaxValue = req.MaxValue
	rule.Action = req.Action
	rule.TargetQuestionID = req.TargetQuestionID
	rule.TargetPageID = req.TargetPageID
	rule.Order = req.Order
}

// ValidateRuleInForm 在模型校验之外，确认引用的选项、行列、目标都属于同一表单
func ValidateRuleInForm(s *model.FormStructure, rule *model.Rule) error {
	source, ok := s.Questions[rule.SourceQuestionID]
	if !ok {
		return util.NewValidationError("sourceQuestionId", "question %d does not belong to this form", rule.SourceQuestionID)
	}
	if err := rule.Validate(source.Type); err != nil {
		var re *model.RuleError
		if errors.As(err, &re) {
			return util.NewValidationError(re.Field, "%s", re.Message)
		}
		return util.NewValidationError("rule", "%v", err)
	}
	if rule.TriggerOptionID != nil && source.FindOption(*rule.TriggerOptionID) == nil {
		return util.NewValidationError("triggerOptionId", "option %d does not belong to question %d", *rule.TriggerOptionID, source.ID)
	}
	if rule.MatrixRowID != nil && source.FindRow(*rule.MatrixRowID) == nil {
		return util.NewValidationError("matrixRowId", "row %d does not belong to question %d", *rule.MatrixRowID, source.ID)
	}
	if rule.MatrixColumnID != nil && source.FindColumn(*rule.MatrixColumnID) == nil {
		return util.NewValidationError("matrixColumnId", "column %d does not belong to question %d", *rule.MatrixColumnID, source.ID)
	}
	if rule.Action.TargetsQuestion() {
		if _, ok := s.Questions[*rule.TargetQuestionID]; !ok {
			return util.NewValidationError("targetQuestionId", "question %d does not belong to this form", *rule.TargetQuestionID)
		}
	} else {
		rule.TargetQuestionID = nil
	}
	if rule.Action == model.ActionSkipToPage {
		if !s.HasPage(*rule.TargetPageID) {
			return util.NewValidationError("targetPageId", "page %d does not belong to this form", *rule.TargetPageID)
		}
	} else {
		rule.TargetPageID = nil
	}
	return nil
}
