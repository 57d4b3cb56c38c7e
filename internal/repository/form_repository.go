package repository

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"

	"gorm.io/gorm"
)

const orderBySort = "sort_order asc, id asc"

type FormRepository struct {
	DB *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{DB: db}
}

func (r *FormRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.DB)
}

func (r *FormRepository) Create(ctx context.Context, form *model.Form) error {
	return r.db(ctx).Create(form).Error
}

func (r *FormRepository) Update(ctx context.Context, form *model.Form) error {
	return r.db(ctx).Omit("Pages").Save(form).Error
}

func (r *FormRepository) FindByID(ctx context.Context, id uint) (*model.Form, error) {
	var form model.Form
	err := r.db(ctx).First(&form, id).Error
	if err != nil {
		return nil, util.WrapNotFound(err, "form", id)
	}
	return &form, nil
}

func (r *FormRepository) FindByPublicKey(ctx context.Context, key string) (*model.Form, error) {
	var form model.Form
	err := r.db(ctx).Where("public_key = ?", key).First(&form).Error
	if err != nil {
		return nil, util.WrapNotFound(err, "form", key)
	}
	return &form, nil
}

func (r *FormRepository) List(ctx context.Context, search string, page, limit int) ([]model.Form, int64, error) {
	forms := []model.Form{}
	var total int64
	query := r.db(ctx).Model(&model.Form{})
	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&forms).Error
	return forms, total, err
}

// LoadStructure 预加载页、题目及选项/矩阵行列
func (r *FormRepository) LoadStructure(ctx context.Context, id uint) (*model.Form, error) {
	var form model.Form
	err := r.db(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("Pages.Questions", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("Pages.Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("Pages.Questions.MatrixRows", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("Pages.Questions.MatrixColumns", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		First(&form, id).Error
	if err != nil {
		return nil, util.WrapNotFound(err, "form", id)
	}
	return &form, nil
}

// Delete 删除表单及其结构、规则；历史提交保留
func (r *FormRepository) Delete(ctx context.Context, id uint) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		var form model.Form
		if err := tx.First(&form, id).Error; err != nil {
			return util.WrapNotFound(err, "form", id)
		}
		questionIDs := tx.Model(&model.Question{}).Select("id").Where("form_id = ?", id)
		if err := deleteQuestionChildren(tx, questionIDs); err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.Rule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&model.Page{}).Error; err != nil {
			return err
		}
		return tx.Delete(&form).Error
	})
}

func (r *FormRepository) CreatePage(ctx context.Context, page *model.Page) error {
	return r.db(ctx).Omit("Questions").Create(page).Error
}

func (r *FormRepository) UpdatePage(ctx context.Context, page *model.Page) error {
	return r.db(ctx).Omit("Questions").Save(page).Error
}

func (r *FormRepository) FindPage(ctx context.Context, formID, pageID uint) (*model.Page, error) {
	var page model.Page
	err := r.db(ctx).Where("form_id = ?", formID).First(&page, pageID).Error
	if err != nil {
		return nil, util.WrapNotFound(err, "page", pageID)
	}
	return &page, nil
}

func (r *FormRepository) ListPages(ctx context.Context, formID uint) ([]model.Page, error) {
	pages := []model.Page{}
	err := r.db(ctx).Where("form_id = ?", formID).Order(orderBySort).Find(&pages).Error
	return pages, err
}

// DeletePage 同时删除页内题目以及引用这些题目或该页的规则
func (r *FormRepository) DeletePage(ctx context.Context, formID, pageID uint) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		var page model.Page
		if err := tx.Where("form_id = ?", formID).First(&page, pageID).Error; err != nil {
			return util.WrapNotFound(err, "page", pageID)
		}
		questionIDs := tx.Model(&model.Question{}).Select("id").Where("page_id = ?", pageID)
		if err := tx.Where("source_question_id IN (?) OR target_question_id IN (?) OR target_page_id = ?",
			questionIDs, questionIDs, pageID).Delete(&model.Rule{}).Error; err != nil {
			return err
		}
		if err := deleteQuestionChildren(tx, questionIDs); err != nil {
			return err
		}
		if err := tx.Where("page_id = ?", pageID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&page).Error
	})
}

func deleteQuestionChildren(tx *gorm.DB, questionIDs interface{}) error {
	for _, child := range []interface{}{&model.Option{}, &model.MatrixRow{}, &model.MatrixColumn{}} {
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(child).Error; err != nil {
			return err
		}
	}
	return nil
}
