package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"strings"

	"github.com/shopspring/decimal"
)

type OptionRequest struct {
	ID    uint                `json:"id"`
	Label string              `json:"label" binding:"required,max=500"`
	Score decimal.NullDecimal `json:"score"`
	Order int                 `json:"order"`
}

type MatrixRowRequest struct {
	ID    uint   `json:"id"`
	Label string `json:"label" binding:"required,max=500"`
	Order int    `json:"order"`
}

type MatrixColumnRequest struct {
	ID    uint                `json:"id"`
	Label string              `json:"label" binding:"required,max=500"`
	Score decimal.NullDecimal `json:"score"`
	Order int                 `json:"order"`
}

type QuestionRequest struct {
	PageID        uint                  `json:"pageId" binding:"required"`
	Type          model.QuestionType    `json:"type" binding:"required"`
	Title         string                `json:"title" binding:"required,max=500"`
	Description   string                `json:"description"`
	Required      bool                  `json:"required"`
	Order         int                   `json:"order"`
	SliderMin     decimal.NullDecimal   `json:"sliderMin"`
	SliderMax     decimal.NullDecimal   `json:"sliderMax"`
	SliderStep    decimal.NullDecimal   `json:"sliderStep"`
	Options       []OptionRequest       `json:"options" binding:"dive"`
	MatrixRows    []MatrixRowRequest    `json:"matrixRows" binding:"dive"`
	MatrixColumns []MatrixColumnRequest `json:"matrixColumns" binding:"dive"`
}

type QuestionService struct {
	forms     FormStore
	questions QuestionStore
}

func NewQuestionService(forms FormStore, questions QuestionStore) *QuestionService {
	return &QuestionService{forms: forms, questions: questions}
}

func (s *QuestionService) Create(ctx context.Context, formID uint, req *QuestionRequest) (*model.Question, error) {
	if _, err := s.forms.FindPage(ctx, formID, req.PageID); err != nil {
		if util.IsNotFound(err) {
			return nil, util.NewValidationError("pageId", "page %d does not belong to form %d", req.PageID, formID)
		}
		return nil, err
	}
	q := &model.Question{FormID: formID}
	if err := applyQuestionRequest(q, req); err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Get(ctx context.Context, id uint) (*model.Question, error) {
	return s.questions.FindByID(ctx, id)
}

func (s *QuestionService) ListByForm(ctx context.Context, formID uint) ([]model.Question, error) {
	if _, err := s.forms.FindByID(ctx, formID); err != nil {
		return nil, err
	}
	return s.questions.ListByForm(ctx, formID)
}

// Update 题型不允许修改，避免已有规则与答案失效
func (s *QuestionService) Update(ctx context.Context, id uint, req *QuestionRequest) (*model.Question, error) {
	q, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Type != q.Type {
		return nil, util.NewValidationError("type", "question type cannot be changed")
	}
	if req.PageID != q.PageID {
		if _, err := s.forms.FindPage(ctx, q.FormID, req.PageID); err != nil {
			if util.IsNotFound(err) {
				return nil, util.NewValidationError("pageId", "page %d does not belong to form %d", req.PageID, q.FormID)
			}
			return nil, err
		}
	}
	if err := applyQuestionRequest(q, req); err != nil {
		return nil, err
	}
	if err := s.questions.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	return s.questions.Delete(ctx, id)
}

// applyQuestionRequest 校验题型与子项的组合后写入 q，子项 ID 必须属于 q
func applyQuestionRequest(q *model.Question, req *QuestionRequest) error {
	if !req.Type.Valid() {
		return util.NewValidationError("type", "unknown question type %q", req.Type)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return util.NewValidationError("title", "must not be blank")
	}

	switch {
	case req.Type.IsChoice():
		if len(req.Options) == 0 {
			return util.NewValidationError("options", "%s questions need at least one option", req.Type)
		}
		if len(req.MatrixRows) > 0 || len(req.MatrixColumns) > 0 {
			return util.NewValidationError("matrixRows", "only matrix questions have rows and columns")
		}
	case req.Type == model.QuestionMatrix:
		if len(req.MatrixRows) == 0 || len(req.MatrixColumns) == 0 {
			return util.NewValidationError("matrixRows", "matrix questions need rows and columns")
		}
		if len(req.Options) > 0 {
			return util.NewValidationError("options", "matrix questions do not have options")
		}
	default:
		if len(req.Options) > 0 || len(req.MatrixRows) > 0 || len(req.MatrixColumns) > 0 {
			return util.NewValidationError("options", "%s questions do not have options", req.Type)
		}
	}

	if req.Type == model.QuestionSlider {
		if !req.SliderMin.Valid || !req.SliderMax.Valid {
			return util.NewValidationError("sliderMin", "sliderMin and sliderMax are required")
		}
		if !req.SliderMin.Decimal.LessThan(req.SliderMax.Decimal) {
			return util.NewValidationError("sliderMin", "must be less than sliderMax")
		}
		if req.SliderStep.Valid && !req.SliderStep.Decimal.IsPositive() {
			return util.NewValidationError("sliderStep", "must be positive")
		}
	}

	options := make([]model.Option, 0, len(req.Options))
	for _, o := range req.Options {
		if o.ID != 0 && q.FindOption(o.ID) == nil {
			return util.NewValidationError("options", "option %d does not belong to this question", o.ID)
		}
		opt := model.Option{QuestionID: q.ID, Label: strings.TrimSpace(o.Label), Score: o.Score, Order: o.Order}
		if existing := q.FindOption(o.ID); existing != nil {
			opt.BaseModel = existing.BaseModel
		}
		options = append(options, opt)
	}
	rows := make([]model.MatrixRow, 0, len(req.MatrixRows))
	for _, r := range req.MatrixRows {
		if r.ID != 0 && q.FindRow(r.ID) == nil {
			return util.NewValidationError("matrixRows", "row %d does not belong to this question", r.ID)
		}
		row := model.MatrixRow{QuestionID: q.ID, Label: strings.TrimSpace(r.Label), Order: r.Order}
		if existing := q.FindRow(r.ID); existing != nil {
			row.BaseModel = existing.BaseModel
		}
		rows = append(rows, row)
	}
	columns := make([]model.MatrixColumn, 0, len(req.MatrixColumns))
	for _, c := range req.MatrixColumns {
		if c.ID != 0 && q.FindColumn(c.ID) == nil {
			return util.NewValidationError("matrixColumns", "column %d does not belong to this question", c.ID)
		}
		col := model.MatrixColumn{QuestionID: q.ID, Label: strings.TrimSpace(c.Label), Score: c.Score, Order: c.Order}
		if existing := q.FindColumn(c.ID); existing != nil {
			col.BaseModel = existing.BaseModel
		}
		columns = append(columns, col)
	}

	q.PageID = req.PageID
	q.Type = req.Type
	q.Title = title
	q.Description = req.Description
	q.Required = req.Required
	q.Order = req.Order
	q.SliderMin, q.SliderMax, q.SliderStep = decimal.NullDecimal{}, decimal.NullDecimal{}, decimal.NullDecimal{}
	if req.Type == model.QuestionSlider {
		q.SliderMin, q.SliderMax, q.SliderStep = req.SliderMin, req.SliderMax, req.SliderStep
	}
	q.Options = options
	q.MatrixRows = rows
	q.MatrixColumns = columns
	return nil
}
