package repository

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.DB)
}

// Create 题目与选项、矩阵行列一起写入
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(q).Error
	})
}

// Update 更新题目并同步子项：带 ID 的保留并更新，不带 ID 的新建，缺失的删除。
// 保留 ID 是为了不破坏规则与历史答案对选项的引用。
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options", "MatrixRows", "MatrixColumns").Save(q).Error; err != nil {
			return err
		}

		optionIDs := make([]uint, 0, len(q.Options))
		for i := range q.Options {
			q.Options[i].QuestionID = q.ID
			if err := tx.Save(&q.Options[i]).Error; err != nil {
				return err
			}
			optionIDs = append(optionIDs, q.Options[i].ID)
		}
		if err := deleteStale(tx, &model.Option{}, q.ID, optionIDs); err != nil {
			return err
		}

		rowIDs := make([]uint, 0, len(q.MatrixRows))
		for i := range q.MatrixRows {
			q.MatrixRows[i].QuestionID = q.ID
			if err := tx.Save(&q.MatrixRows[i]).Error; err != nil {
				return err
			}
			rowIDs = append(rowIDs, q.MatrixRows[i].ID)
		}
		if err := deleteStale(tx, &model.MatrixRow{}, q.ID, rowIDs); err != nil {
			return err
		}

		columnIDs := make([]uint, 0, len(q.MatrixColumns))
		for i := range q.MatrixColumns {
			q.MatrixColumns[i].QuestionID = q.ID
			if err := tx.Save(&q.MatrixColumns[i]).Error; err != nil {
				return err
			}
			columnIDs = append(columnIDs, q.MatrixColumns[i].ID)
		}
		return deleteStale(tx, &model.MatrixColumn{}, q.ID, columnIDs)
	})
}

func deleteStale(tx *gorm.DB, child interface{}, questionID uint, keep []uint) error {
	query := tx.Where("question_id = ?", questionID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	return query.Delete(child).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	err := r.db(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("MatrixRows", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("MatrixColumns", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		First(&q, id).Error
	if err != nil {
		return nil, util.WrapNotFound(err, "question", id)
	}
	return &q, nil
}

func (r *QuestionRepository) ListByForm(ctx context.Context, formID uint) ([]model.Question, error) {
	questions := []model.Question{}
	err := r.db(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("MatrixRows", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Preload("MatrixColumns", func(db *gorm.DB) *gorm.DB { return db.Order(orderBySort) }).
		Where("form_id = ?", formID).
		Order("page_id asc, " + orderBySort).
		Find(&questions).Error
	return questions, err
}

// Delete 删除题目、子项以及以它为来源或目标的规则
func (r *QuestionRepository) Delete(ctx context.Context, id uint) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		var q model.Question
		if err := tx.First(&q, id).Error; err != nil {
			return util.WrapNotFound(err, "question", id)
		}
		if err := tx.Where("source_question_id = ? OR target_question_id = ?", id, id).Delete(&model.Rule{}).Error; err != nil {
			return err
		}
		if err := deleteQuestionChildren(tx, []uint{id}); err != nil {
			return err
		}
		return tx.Delete(&q).Error
	})
}
