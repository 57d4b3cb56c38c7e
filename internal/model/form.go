package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// swagger:model Form
type Form struct {
	BaseModel
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	PublicKey   string     `gorm:"size:36;uniqueIndex;not null" json:"publicKey"`
	Pages       []Page     `gorm:"foreignKey:FormID" json:"pages,omitempty"`
}

func (Form) TableName() string {
	return "forms"
}

// swagger:model Page
type Page struct {
	BaseModel
	FormID    uint       `gorm:"index;not null" json:"formId"`
	Title     string     `gorm:"size:255" json:"title"`
	Order     int        `gorm:"column:sort_order;default:0" json:"order"`
	Questions []Question `gorm:"foreignKey:PageID" json:"questions,omitempty"`
}

func (Page) TableName() string {
	return "form_pages"
}

// swagger:model Question
type Question struct {
	BaseModel
	FormID        uint                `gorm:"index;not null" json:"formId"`
	PageID        uint                `gorm:"index;not null" json:"pageId"`
	Type          QuestionType        `gorm:"size:20;not null" json:"type"`
	Title         string              `gorm:"size:500;not null" json:"title"`
	Description   string              `gorm:"type:text" json:"description"`
	Required      bool                `gorm:"default:false" json:"required"`
	Order         int                 `gorm:"column:sort_order;default:0" json:"order"`
	SliderMin     decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"sliderMin"`
	SliderMax     decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"sliderMax"`
	SliderStep    decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"sliderStep"`
	Options       []Option            `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	MatrixRows    []MatrixRow         `gorm:"foreignKey:QuestionID" json:"matrixRows,omitempty"`
	MatrixColumns []MatrixColumn      `gorm:"foreignKey:QuestionID" json:"matrixColumns,omitempty"`
}

func (Question) TableName() string {
	return "form_questions"
}

func (q *Question) FindOption(id uint) *Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

func (q *Question) FindRow(id uint) *MatrixRow {
	for i := range q.MatrixRows {
		if q.MatrixRows[i].ID == id {
			return &q.MatrixRows[i]
		}
	}
	return nil
}

func (q *Question) FindColumn(id uint) *MatrixColumn {
	for i := range q.MatrixColumns {
		if q.MatrixColumns[i].ID == id {
			return &q.MatrixColumns[i]
		}
	}
	return nil
}

// swagger:model Option
type Option struct {
	BaseModel
	QuestionID uint                `gorm:"index;not null" json:"questionId"`
	Label      string              `gorm:"size:500;not null" json:"label"`
	Score      decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"score"`
	Order      int                 `gorm:"column:sort_order;default:0" json:"order"`
}

func (Option) TableName() string {
	return "form_options"
}

type MatrixRow struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Label      string `gorm:"size:500;not null" json:"label"`
	Order      int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (MatrixRow) TableName() string {
	return "form_matrix_rows"
}

type MatrixColumn struct {
	BaseModel
	QuestionID uint                `gorm:"index;not null" json:"questionId"`
	Label      string              `gorm:"size:500;not null" json:"label"`
	Score      decimal.NullDecimal `gorm:"type:decimal(12,4)" json:"score"`
	Order      int                 `gorm:"column:sort_order;default:0" json:"order"`
}

func (MatrixColumn) TableName() string {
	return "form_matrix_columns"
}

// ScoreOrZero 未设置分值时按 0 计
func ScoreOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// FormStructure 表单结构的只读索引，供规则计算、评分、导出使用
type FormStructure struct {
	Form      *Form
	Questions map[uint]*Question
	PageIDs   map[uint]struct{}
	ordered   []*Question
	pageOrder []uint
}

// NewFormStructure 要求 Pages.Questions 及其子项已预加载
func NewFormStructure(form *Form) *FormStructure {
	s := &FormStructure{
		Form:      form,
		Questions: make(map[uint]*Question),
		PageIDs:   make(map[uint]struct{}),
	}

	pages := make([]*Page, len(form.Pages))
	for i := range form.Pages {
		pages[i] = &form.Pages[i]
	}
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Order != pages[j].Order {
			return pages[i].Order < pages[j].Order
		}
		return pages[i].ID < pages[j].ID
	})

	for _, p := range pages {
		s.PageIDs[p.ID] = struct{}{}
		s.pageOrder = append(s.pageOrder, p.ID)
		qs := make([]*Question, len(p.Questions))
		for i := range p.Questions {
			qs[i] = &p.Questions[i]
		}
		sort.SliceStable(qs, func(i, j int) bool {
			if qs[i].Order != qs[j].Order {
				return qs[i].Order < qs[j].Order
			}
			return qs[i].ID < qs[j].ID
		})
		for _, q := range qs {
			s.Questions[q.ID] = q
			s.ordered = append(s.ordered, q)
		}
	}
	return s
}

// OrderedQuestions 按页顺序、题目顺序排列
func (s *FormStructure) OrderedQuestions() []*Question {
	return s.ordered
}

func (s *FormStructure) HasPage(id uint) bool {
	_, ok := s.PageIDs[id]
	return ok
}

// PageIndex 返回页在表单中的位置，不存在时返回 -1
func (s *FormStructure) PageIndex(pageID uint) int {
	for i, id := range s.pageOrder {
		if id == pageID {
			return i
		}
	}
	return -1
}
