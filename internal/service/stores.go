package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/repository"
	"time"
)

// 服务依赖的持久化接口，由 repository 包中的 gorm 实现满足

type FormStore interface {
	Create(ctx context.Context, form *model.Form) error
	Update(ctx context.Context, form *model.Form) error
	FindByID(ctx context.Context, id uint) (*model.Form, error)
	FindByPublicKey(ctx context.Context, key string) (*model.Form, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Form, int64, error)
	LoadStructure(ctx context.Context, id uint) (*model.Form, error)
	Delete(ctx context.Context, id uint) error

	CreatePage(ctx context.Context, page *model.Page) error
	UpdatePage(ctx context.Context, page *model.Page) error
	FindPage(ctx context.Context, formID, pageID uint) (*model.Page, error)
	ListPages(ctx context.Context, formID uint) ([]model.Page, error)
	DeletePage(ctx context.Context, formID, pageID uint) error
}

type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	ListByForm(ctx context.Context, formID uint) ([]model.Question, error)
	Delete(ctx context.Context, id uint) error
}

type RuleStore interface {
	Create(ctx context.Context, rule *model.Rule) error
	Update(ctx context.Context, rule *model.Rule) error
	FindByID(ctx context.Context, id uint) (*model.Rule, error)
	ListByForm(ctx context.Context, formID uint) ([]model.Rule, error)
	Delete(ctx context.Context, id uint) error
}

type SubmissionStore interface {
	CreateWithAnswers(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id uint) (*model.Submission, error)
	ListByForm(ctx context.Context, formID uint, page, limit int) ([]model.Submission, int64, error)
	ListAllByForm(ctx context.Context, formID uint, filter repository.SubmissionFilter) ([]model.Submission, error)
	CountByForm(ctx context.Context, formID uint) (int64, error)
	BulkUpdateScores(ctx context.Context, updates []model.ScoreUpdate, scoredAt time.Time) error
	Delete(ctx context.Context, id uint) error
}

type ExportStore interface {
	Create(ctx context.Context, artifact *model.ExportArtifact) error
	FindByID(ctx context.Context, id string) (*model.ExportArtifact, error)
	ListExpired(ctx context.Context, now time.Time) ([]model.ExportArtifact, error)
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type TimeZoneStore interface {
	List(ctx context.Context) ([]model.MasterTimeZone, error)
	FindByCode(ctx context.Context, code string) (*model.MasterTimeZone, error)
}
