package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// swagger:model Rule
type Rule struct {
	BaseModel
	FormID           uint                `gorm:"index;not null" json:"formId"`
	SourceQuestionID uint                `gorm:"index;not null" json:"sourceQuestionId"`
	TriggerOptionID  *uint               `json:"triggerOptionId,omitempty"`
	MatrixRowID      *uint               `json:"matrixRowId,omitempty"`
	MatrixColumnID   *uint               `json:"matrixColumnId,omitempty"`
	Condition        ConditionType       `gorm:"size:32;not null" json:"condition"`
	Value            decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"value"`
	MinValue         decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"minValue"`
	MaxValue         decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"maxValue"`
	Action           ActionType          `gorm:"size:32;not null" json:"action"`
	TargetQuestionID *uint               `json:"targetQuestionId,omitempty"`
	TargetPageID     *uint               `json:"targetPageId,omitempty"`
	Order            int                 `gorm:"column:sort_order;default:0" json:"order"`
}

func (Rule) TableName() string {
	return "form_rules"
}

// RuleError 规则定义不合法
type RuleError struct {
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.Field, e.Message)
}

var ErrNilRule = errors.New("rule is nil")

// Validate 校验条件/动作组合以及必填字段，sourceType 为来源题目的题型
func (r *Rule) Validate(sourceType QuestionType) error {
	if r == nil {
		return ErrNilRule
	}
	if !r.Condition.Valid() {
		return &RuleError{Field: "condition", Message: fmt.Sprintf("unknown condition %q", r.Condition)}
	}
	if !r.Action.Valid() {
		return &RuleError{Field: "action", Message: fmt.Sprintf("unknown action %q", r.Action)}
	}
	if !r.Condition.AppliesTo(sourceType) {
		return &RuleError{Field: "condition", Message: fmt.Sprintf("%s cannot be used with %s questions", r.Condition, sourceType)}
	}

	switch r.Condition {
	case ConditionIsSelected, ConditionIsNotSelected:
		if r.TriggerOptionID == nil {
			return &RuleError{Field: "triggerOptionId", Message: "required for choice conditions"}
		}
	case ConditionRowHasSelection:
		if r.MatrixRowID == nil {
			return &RuleError{Field: "matrixRowId", Message: "required"}
		}
	case ConditionRowHasColumn:
		if r.MatrixRowID == nil || r.MatrixColumnID == nil {
			return &RuleError{Field: "matrixRowId", Message: "row and column are required"}
		}
	case ConditionColumnSelected:
		if r.MatrixColumnID == nil {
			return &RuleError{Field: "matrixColumnId", Message: "required"}
		}
	default:
		if r.Condition.IsRange() {
			if !r.MinValue.Valid || !r.MaxValue.Valid {
				return &RuleError{Field: "minValue", Message: "minValue and maxValue are required"}
			}
			if r.MinValue.Decimal.GreaterThan(r.MaxValue.Decimal) {
				return &RuleError{Field: "minValue", Message: "must not exceed maxValue"}
			}
		} else if !r.Value.Valid {
			return &RuleError{Field: "value", Message: "required"}
		}
	}

	switch {
	case r.Action.TargetsQuestion():
		if r.TargetQuestionID == nil {
			return &RuleError{Field: "targetQuestionId", Message: fmt.Sprintf("required for %s", r.Action)}
		}
		if *r.TargetQuestionID == r.SourceQuestionID {
			return &RuleError{Field: "targetQuestionId", Message: "must differ from the source question"}
		}
	case r.Action == ActionSkipToPage:
		if r.TargetPageID == nil {
			return &RuleError{Field: "targetPageId", Message: "required for SkipToPage"}
		}
	}
	return nil
}
