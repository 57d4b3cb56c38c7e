package model

import (
	"encoding/json"
	"fmt"
)

// QuestionType 题型，字符串值需与前端保持一致
type QuestionType string

const (
	QuestionMulti    QuestionType = "Multi"
	QuestionRadio    QuestionType = "Radio"
	QuestionDropdown QuestionType = "Dropdown"
	QuestionSlider   QuestionType = "Slider"
	QuestionText     QuestionType = "Text"
	QuestionTextArea QuestionType = "TextArea"
	QuestionDate     QuestionType = "Date"
	QuestionMatrix   QuestionType = "Matrix"
)

var questionTypes = []QuestionType{
	QuestionMulti, QuestionRadio, QuestionDropdown, QuestionSlider,
	QuestionText, QuestionTextArea, QuestionDate, QuestionMatrix,
}

func ParseQuestionType(s string) (QuestionType, error) {
	for _, t := range questionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

func (t QuestionType) Valid() bool {
	_, err := ParseQuestionType(string(t))
	return err == nil
}

// IsChoice 基于选项的题型
func (t QuestionType) IsChoice() bool {
	return t == QuestionMulti || t == QuestionRadio || t == QuestionDropdown
}

// SingleChoice 只允许选择一个选项
func (t QuestionType) SingleChoice() bool {
	return t == QuestionRadio || t == QuestionDropdown
}

func (t *QuestionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseQuestionType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ConditionCategory 条件分组，决定条件可以作用于哪些题型
type ConditionCategory int

const (
	ConditionCategoryChoice ConditionCategory = iota + 1
	ConditionCategoryValue
	ConditionCategoryMatrix
	ConditionCategoryScore
)

type ConditionType string

const (
	ConditionIsSelected       ConditionType = "IsSelected"
	ConditionIsNotSelected    ConditionType = "IsNotSelected"
	ConditionIsGreaterThan    ConditionType = "IsGreaterThan"
	ConditionIsLessThan       ConditionType = "IsLessThan"
	ConditionIsEqualTo        ConditionType = "IsEqualTo"
	ConditionIsNotEqualTo     ConditionType = "IsNotEqualTo"
	ConditionIsInRange        ConditionType = "IsInRange"
	ConditionRowHasSelection  ConditionType = "RowHasSelection"
	ConditionRowHasColumn     ConditionType = "RowHasColumn"
	ConditionColumnSelected   ConditionType = "ColumnSelected"
	ConditionScoreGreaterThan ConditionType = "ScoreGreaterThan"
	ConditionScoreLessThan    ConditionType = "ScoreLessThan"
	ConditionScoreEqualTo     ConditionType = "ScoreEqualTo"
	ConditionScoreInRange     ConditionType = "ScoreInRange"
)

var conditionCategories = map[ConditionType]ConditionCategory{
	ConditionIsSelected:       ConditionCategoryChoice,
	ConditionIsNotSelected:    ConditionCategoryChoice,
	ConditionIsGreaterThan:    ConditionCategoryValue,
	ConditionIsLessThan:       ConditionCategoryValue,
	ConditionIsEqualTo:        ConditionCategoryValue,
	ConditionIsNotEqualTo:     ConditionCategoryValue,
	ConditionIsInRange:        ConditionCategoryValue,
	ConditionRowHasSelection:  ConditionCategoryMatrix,
	ConditionRowHasColumn:     ConditionCategoryMatrix,
	ConditionColumnSelected:   ConditionCategoryMatrix,
	ConditionScoreGreaterThan: ConditionCategoryScore,
	ConditionScoreLessThan:    ConditionCategoryScore,
	ConditionScoreEqualTo:     ConditionCategoryScore,
	ConditionScoreInRange:     ConditionCategoryScore,
}

// ValidConditions 按固定顺序列出全部条件
var ValidConditions = []ConditionType{
	ConditionIsSelected, ConditionIsNotSelected,
	ConditionIsGreaterThan, ConditionIsLessThan, ConditionIsEqualTo, ConditionIsNotEqualTo, ConditionIsInRange,
	ConditionRowHasSelection, ConditionRowHasColumn, ConditionColumnSelected,
	ConditionScoreGreaterThan, ConditionScoreLessThan, ConditionScoreEqualTo, ConditionScoreInRange,
}

func ParseConditionType(s string) (ConditionType, error) {
	c := ConditionType(s)
	if _, ok := conditionCategories[c]; !ok {
		return "", fmt.Errorf("unknown condition type %q", s)
	}
	return c, nil
}

func (c ConditionType) Valid() bool {
	_, ok := conditionCategories[c]
	return ok
}

// Category 未知条件返回 0
func (c ConditionType) Category() ConditionCategory {
	return conditionCategories[c]
}

// IsRange 需要 MinValue/MaxValue 的条件
func (c ConditionType) IsRange() bool {
	return c == ConditionIsInRange || c == ConditionScoreInRange
}

// AppliesTo 判断条件是否可用于指定题型
func (c ConditionType) AppliesTo(t QuestionType) bool {
	switch c.Category() {
	case ConditionCategoryChoice:
		return t.IsChoice()
	case ConditionCategoryValue:
		return t == QuestionSlider
	case ConditionCategoryMatrix:
		return t == QuestionMatrix
	case ConditionCategoryScore:
		return t == QuestionSlider || t == QuestionMatrix || t.IsChoice()
	}
	return false
}

func (c *ConditionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseConditionType(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

type ActionType string

const (
	ActionHideQuestion  ActionType = "HideQuestion"
	ActionShowQuestion  ActionType = "ShowQuestion"
	ActionSkipToPage    ActionType = "SkipToPage"
	ActionTerminateForm ActionType = "TerminateForm"
)

var ValidActions = []ActionType{ActionHideQuestion, ActionShowQuestion, ActionSkipToPage, ActionTerminateForm}

func ParseActionType(s string) (ActionType, error) {
	for _, a := range ValidActions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action type %q", s)
}

func (a ActionType) Valid() bool {
	_, err := ParseActionType(string(a))
	return err == nil
}

// TargetsQuestion Hide/Show 需要目标题目
func (a ActionType) TargetsQuestion() bool {
	return a == ActionHideQuestion || a == ActionShowQuestion
}

func (a *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseActionType(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
