package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SubmissionCompleted  = "completed"
	SubmissionTerminated = "terminated"
)

// swagger:model Submission
type Submission struct {
	BaseModel
	FormID        uint            `gorm:"index;not null" json:"formId"`
	RespondentRef string          `gorm:"size:255" json:"respondentRef"`
	Status        string          `gorm:"size:20;default:'completed'" json:"status"`
	TotalScore    decimal.Decimal `gorm:"type:decimal(14,4);default:0" json:"totalScore"`
	ScoredAt      *time.Time      `json:"scoredAt,omitempty"`
	Answers       []Answer        `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
}

func (Submission) TableName() string {
	return "form_submissions"
}

type Answer struct {
	BaseModel
	SubmissionID uint            `gorm:"index;not null" json:"submissionId"`
	QuestionID   uint            `gorm:"index;not null" json:"questionId"`
	Score        decimal.Decimal `gorm:"type:decimal(14,4);default:0" json:"score"`
	Values       []AnswerValue   `gorm:"foreignKey:AnswerID" json:"values,omitempty"`
}

func (Answer) TableName() string {
	return "form_answers"
}

// AnswerValue 单个取值：选项、矩阵单元格、数值、文本或日期
type AnswerValue struct {
	BaseModel
	AnswerID       uint                `gorm:"index;not null" json:"answerId"`
	OptionID       *uint               `json:"optionId,omitempty"`
	MatrixRowID    *uint               `json:"matrixRowId,omitempty"`
	MatrixColumnID *uint               `json:"matrixColumnId,omitempty"`
	TextValue      string              `gorm:"type:text" json:"textValue,omitempty"`
	NumericValue   decimal.NullDecimal `gorm:"type:decimal(14,4)" json:"numericValue"`
	DateValue      *time.Time          `json:"dateValue,omitempty"`
}

func (AnswerValue) TableName() string {
	return "form_answer_values"
}

// ScoreUpdate 重新计分时批量写回的数据
type ScoreUpdate struct {
	SubmissionID uint
	TotalScore   decimal.Decimal
	AnswerScores map[uint]decimal.Decimal // answerID -> score
}
