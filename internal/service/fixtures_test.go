package service

import (
	"questionnaire_backend/internal/model"

	"github.com/shopspring/decimal"
)

func uintPtr(v uint) *uint { return &v }

func num(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func base(id uint) model.BaseModel {
	return model.BaseModel{ID: id}
}

// sampleForm
//
//	page 1: q1 Radio (opt 11 = 2, opt 12 = 5), q2 Slider 0..100 (required)
//	page 2: q3 Matrix (rows 31, 32; col 41 = 5, col 42 = 1), q4 Text (required)
//	page 3: q5 Multi (opt 51 = 1, opt 52 unscored), q6 Date
func sampleForm() *model.Form {
	return &model.Form{
		BaseModel:   base(1),
		Title:       "sample",
		IsPublished: true,
		PublicKey:   "public-key",
		Pages: []model.Page{
			{BaseModel: base(1), FormID: 1, Order: 1, Questions: []model.Question{
				{BaseModel: base(1), FormID: 1, PageID: 1, Order: 1, Type: model.QuestionRadio, Title: "q1", Options: []model.Option{
					{BaseModel: base(11), QuestionID: 1, Label: "a", Score: num(2)},
					{BaseModel: base(12), QuestionID: 1, Label: "b", Score: num(5)},
				}},
				{BaseModel: base(2), FormID: 1, PageID: 1, Order: 2, Type: model.QuestionSlider, Title: "q2", Required: true,
					SliderMin: num(0), SliderMax: num(100), SliderStep: num(1)},
			}},
			{BaseModel: base(2), FormID: 1, Order: 2, Questions: []model.Question{
				{BaseModel: base(3), FormID: 1, PageID: 2, Order: 1, Type: model.QuestionMatrix, Title: "q3",
					MatrixRows: []model.MatrixRow{
						{BaseModel: base(31), QuestionID: 3, Label: "r1"},
						{BaseModel: base(32), QuestionID: 3, Label: "r2"},
					},
					MatrixColumns: []model.MatrixColumn{
						{BaseModel: base(41), QuestionID: 3, Label: "c1", Score: num(5)},
						{BaseModel: base(42), QuestionID: 3, Label: "c2", Score: num(1)},
					}},
				{BaseModel: base(4), FormID: 1, PageID: 2, Order: 2, Type: model.QuestionText, Title: "q4", Required: true},
			}},
			{BaseModel: base(3), FormID: 1, Order: 3, Questions: []model.Question{
				{BaseModel: base(5), FormID: 1, PageID: 3, Order: 1, Type: model.QuestionMulti, Title: "q5", Options: []model.Option{
					{BaseModel: base(51), QuestionID: 5, Label: "x", Score: num(1)},
					{BaseModel: base(52), QuestionID: 5, Label: "y"},
				}},
				{BaseModel: base(6), FormID: 1, PageID: 3, Order: 2, Type: model.QuestionDate, Title: "q6"},
			}},
		},
	}
}

func sampleStructure() *model.FormStructure {
	return model.NewFormStructure(sampleForm())
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}
