package service

import (
	"fmt"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"sort"

	"github.com/shopspring/decimal"
)

type MatrixSelection struct {
	RowID    uint `json:"rowId"`
	ColumnID uint `json:"columnId"`
}

// SubmittedAnswer 某道题的作答，按题型只使用对应字段
type SubmittedAnswer struct {
	QuestionID uint                `json:"questionId" binding:"required"`
	OptionIDs  []uint              `json:"optionIds,omitempty"`
	Value      decimal.NullDecimal `json:"value"`
	Text       string              `json:"text,omitempty"`
	Date       string              `json:"date,omitempty"`
	Matrix     []MatrixSelection   `json:"matrix,omitempty"`
}

// RuleEvaluation 规则求值结果。同一目标同时被隐藏和显示时以显示为准；
// 多条跳页规则命中时取求值顺序中的第一条；终止标记只会被置位。
type RuleEvaluation struct {
	HiddenQuestionIDs []uint `json:"hiddenQuestionIds"`
	ShownQuestionIDs  []uint `json:"shownQuestionIds"`
	SkipToPageID      *uint  `json:"skipToPageId,omitempty"`
	Terminate         bool   `json:"terminate"`
	TriggeredRuleIDs  []uint `json:"triggeredRuleIds"`

	hidden      map[uint]struct{}
	skipFrom    int
	skipTo      int
	terminateAt int
}

func (e *RuleEvaluation) IsHidden(questionID uint) bool {
	_, ok := e.hidden[questionID]
	return ok
}

// PageSkipped 页位于跳页规则的来源页与目标页之间
func (e *RuleEvaluation) PageSkipped(pageIndex int) bool {
	if e.SkipToPageID == nil {
		return false
	}
	return pageIndex > e.skipFrom && pageIndex < e.skipTo
}

// PageAfterTermination 页位于触发终止的来源页之后
func (e *RuleEvaluation) PageAfterTermination(pageIndex int) bool {
	return e.Terminate && pageIndex > e.terminateAt
}

// Active 题目没有被隐藏、跳过或终止截断
func (e *RuleEvaluation) Active(s *model.FormStructure, q *model.Question) bool {
	if e.IsHidden(q.ID) {
		return false
	}
	idx := s.PageIndex(q.PageID)
	return !e.PageSkipped(idx) && !e.PageAfterTermination(idx)
}

func invalidRule(rule *model.Rule, format string, args ...interface{}) error {
	return fmt.Errorf("%w: rule %d: %s", util.ErrInvalidRule, rule.ID, fmt.Sprintf(format, args...))
}

// SortRules 按 Order、ID 排序，返回副本
func SortRules(rules []model.Rule) []model.Rule {
	sorted := make([]model.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// EvaluateRules 纯函数：依据作答对表单规则求值。
// 规则定义不合法（词汇未知、来源或目标不存在）视为数据完整性错误，整体中止。
func EvaluateRules(s *model.FormStructure, rules []model.Rule, answers []SubmittedAnswer) (*RuleEvaluation, error) {
	byQuestion := make(map[uint]*SubmittedAnswer, len(answers))
	for i := range answers {
		if _, dup := byQuestion[answers[i].QuestionID]; !dup {
			byQuestion[answers[i].QuestionID] = &answers[i]
		}
	}

	eval := &RuleEvaluation{
		HiddenQuestionIDs: []uint{},
		ShownQuestionIDs:  []uint{},
		TriggeredRuleIDs:  []uint{},
		hidden:            make(map[uint]struct{}),
		skipFrom:          -1,
		skipTo:            -1,
		terminateAt:       -1,
	}
	hide := make(map[uint]struct{})
	show := make(map[uint]struct{})

	for _, rule := range SortRules(rules) {
		source, ok := s.Questions[rule.SourceQuestionID]
		if !ok {
			return nil, invalidRule(&rule, "source question %d not in form", rule.SourceQuestionID)
		}
		if err := rule.Validate(source.Type); err != nil {
			return nil, invalidRule(&rule, "%v", err)
		}
		if rule.Action.TargetsQuestion() {
			if _, ok := s.Questions[*rule.TargetQuestionID]; !ok {
				return nil, invalidRule(&rule, "target question %d not in form", *rule.TargetQuestionID)
			}
		}
		if rule.Action == model.ActionSkipToPage && !s.HasPage(*rule.TargetPageID) {
			return nil, invalidRule(&rule, "target page %d not in form", *rule.TargetPageID)
		}

		answer, ok := byQuestion[source.ID]
		if !ok || !answered(source, answer) {
			continue
		}
		if !conditionHolds(&rule, source, answer) {
			continue
		}

		eval.TriggeredRuleIDs = append(eval.TriggeredRuleIDs, rule.ID)
		sourcePage := s.PageIndex(source.PageID)
		switch rule.Action {
		case model.ActionHideQuestion:
			hide[*rule.TargetQuestionID] = struct{}{}
		case model.ActionShowQuestion:
			show[*rule.TargetQuestionID] = struct{}{}
		case model.ActionSkipToPage:
			if eval.SkipToPageID == nil {
				target := *rule.TargetPageID
				eval.SkipToPageID = &target
				eval.skipFrom = sourcePage
				eval.skipTo = s.PageIndex(target)
			}
		case model.ActionTerminateForm:
			if !eval.Terminate || sourcePage < eval.terminateAt {
				eval.terminateAt = sourcePage
			}
			eval.Terminate = true
		}
	}

	for id := range hide {
		if _, shown := show[id]; shown {
			continue
		}
		eval.hidden[id] = struct{}{}
		eval.HiddenQuestionIDs = append(eval.HiddenQuestionIDs, id)
	}
	for id := range show {
		eval.ShownQuestionIDs = append(eval.ShownQuestionIDs, id)
	}
	sortIDs(eval.HiddenQuestionIDs)
	sortIDs(eval.ShownQuestionIDs)
	return eval, nil
}

func sortIDs(ids []uint) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// answered 作答中包含该题型可用于求值的取值
func answered(q *model.Question, a *SubmittedAnswer) bool {
	switch {
	case q.Type.IsChoice():
		return len(a.OptionIDs) > 0
	case q.Type == model.QuestionSlider:
		return a.Value.Valid
	case q.Type == model.QuestionMatrix:
		return len(a.Matrix) > 0
	}
	return false
}

func conditionHolds(rule *model.Rule, q *model.Question, a *SubmittedAnswer) bool {
	switch rule.Condition.Category() {
	case model.ConditionCategoryChoice:
		selected := containsID(a.OptionIDs, *rule.TriggerOptionID)
		if rule.Condition == model.ConditionIsSelected {
			return selected
		}
		return !selected
	case model.ConditionCategoryValue:
		return compare(rule, a.Value.Decimal)
	case model.ConditionCategoryMatrix:
		for _, sel := range a.Matrix {
			switch rule.Condition {
			case model.ConditionRowHasSelection:
				if sel.RowID == *rule.MatrixRowID {
					return true
				}
			case model.ConditionRowHasColumn:
				if sel.RowID == *rule.MatrixRowID && sel.ColumnID == *rule.MatrixColumnID {
					return true
				}
			case model.ConditionColumnSelected:
				if sel.ColumnID == *rule.MatrixColumnID {
					return true
				}
			}
		}
		return false
	case model.ConditionCategoryScore:
		return compare(rule, conditionScore(rule, q, a))
	}
	return false
}

// compare 数值类与分数类条件共用的比较，区间两端均包含
func compare(rule *model.Rule, v decimal.Decimal) bool {
	switch rule.Condition {
	case model.ConditionIsGreaterThan, model.ConditionScoreGreaterThan:
		return v.GreaterThan(rule.Value.Decimal)
	case model.ConditionIsLessThan, model.ConditionScoreLessThan:
		return v.LessThan(rule.Value.Decimal)
	case model.ConditionIsEqualTo, model.ConditionScoreEqualTo:
		return v.Equal(rule.Value.Decimal)
	case model.ConditionIsNotEqualTo:
		return !v.Equal(rule.Value.Decimal)
	case model.ConditionIsInRange, model.ConditionScoreInRange:
		return v.GreaterThanOrEqual(rule.MinValue.Decimal) && v.LessThanOrEqual(rule.MaxValue.Decimal)
	}
	return false
}

// conditionScore 分数类条件的比较对象：滑块取值、矩阵行/整体得分、选项得分之和
func conditionScore(rule *model.Rule, q *model.Question, a *SubmittedAnswer) decimal.Decimal {
	switch {
	case q.Type == model.QuestionSlider:
		return a.Value.Decimal
	case q.Type == model.QuestionMatrix:
		return matrixScore(q, a.Matrix, rule.MatrixRowID)
	default:
		return choiceScore(q, a.OptionIDs)
	}
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
