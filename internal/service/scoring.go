package service

import (
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"sort"

	"github.com/shopspring/decimal"
)

type QuestionScore struct {
	QuestionID uint            `json:"questionId"`
	Score      decimal.Decimal `json:"score"`
}

type ScoreResult struct {
	Total     decimal.Decimal `json:"total"`
	Breakdown []QuestionScore `json:"breakdown"`
}

// ScoreAnswers 汇总一次提交的得分。选择题按选中选项分值求和，
// 矩阵题按每个不同的行×列单元格累加列分值，其余题型记 0。
func ScoreAnswers(s *model.FormStructure, answers []SubmittedAnswer) ScoreResult {
	result := ScoreResult{Total: decimal.Zero, Breakdown: []QuestionScore{}}
	seen := make(map[uint]struct{}, len(answers))
	for i := range answers {
		a := &answers[i]
		q, ok := s.Questions[a.QuestionID]
		if !ok {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}

		score := AnswerScore(q, a)
		result.Total = result.Total.Add(score)
		result.Breakdown = append(result.Breakdown, QuestionScore{QuestionID: q.ID, Score: score})
	}
	sort.Slice(result.Breakdown, func(i, j int) bool {
		return result.Breakdown[i].QuestionID < result.Breakdown[j].QuestionID
	})
	return result
}

func AnswerScore(q *model.Question, a *SubmittedAnswer) decimal.Decimal {
	switch {
	case q.Type.IsChoice():
		return choiceScore(q, a.OptionIDs)
	case q.Type == model.QuestionMatrix:
		return matrixScore(q, a.Matrix, nil)
	}
	return decimal.Zero
}

// choiceScore 同一选项重复提交只计一次，未设置分值按 0
func choiceScore(q *model.Question, optionIDs []uint) decimal.Decimal {
	total := decimal.Zero
	counted := make(map[uint]struct{}, len(optionIDs))
	for _, id := range optionIDs {
		if _, dup := counted[id]; dup {
			continue
		}
		counted[id] = struct{}{}
		if opt := q.FindOption(id); opt != nil {
			total = total.Add(model.ScoreOrZero(opt.Score))
		}
	}
	return total
}

// matrixScore rowID 非空时只统计该行
func matrixScore(q *model.Question, cells []MatrixSelection, rowID *uint) decimal.Decimal {
	total := decimal.Zero
	counted := make(map[MatrixSelection]struct{}, len(cells))
	for _, cell := range cells {
		if rowID != nil && cell.RowID != *rowID {
			continue
		}
		if _, dup := counted[cell]; dup {
			continue
		}
		counted[cell] = struct{}{}
		if q.FindRow(cell.RowID) == nil {
			continue
		}
		if col := q.FindColumn(cell.ColumnID); col != nil {
			total = total.Add(model.ScoreOrZero(col.Score))
		}
	}
	return total
}

// AnswerFromModel 将已保存的答案还原为作答，用于重新计分
func AnswerFromModel(a *model.Answer) SubmittedAnswer {
	out := SubmittedAnswer{QuestionID: a.QuestionID}
	for _, v := range a.Values {
		switch {
		case v.MatrixRowID != nil && v.MatrixColumnID != nil:
			out.Matrix = append(out.Matrix, MatrixSelection{RowID: *v.MatrixRowID, ColumnID: *v.MatrixColumnID})
		case v.OptionID != nil:
			out.OptionIDs = append(out.OptionIDs, *v.OptionID)
		case v.NumericValue.Valid:
			out.Value = v.NumericValue
		case v.DateValue != nil:
			out.Date = v.DateValue.Format(util.DateFormat)
		case v.TextValue != "":
			out.Text = v.TextValue
		}
	}
	return out
}
