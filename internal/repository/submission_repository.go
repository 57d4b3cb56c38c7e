package repository

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"
	"time"

	"gorm.io/gorm"
)

// SubmissionFilter 导出时的筛选条件，零值表示不限制
type SubmissionFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
}

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.DB)
}

// CreateWithAnswers 提交、答案、取值在同一事务中写入
func (r *SubmissionRepository) CreateWithAnswers(ctx context.Context, sub *model.Submission) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(sub).Error
	})
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id uint) (*model.Submission, error) {
	var sub model.Submission
	err := r.db(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("question_id asc") }).
		Preload("Answers.Values").
		First(&sub, id).Error
	if err != nil {
		return nil, util.WrapNotFound(err, "submission", id)
	}
	return &sub, nil
}

func (r *SubmissionRepository) ListByForm(ctx context.Context, formID uint, page, limit int) ([]model.Submission, int64, error) {
	subs := []model.Submission{}
	var total int64
	query := r.db(ctx).Model(&model.Submission{}).Where("form_id = ?", formID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}

// ListAllByForm 带答案加载表单的全部提交，按提交时间升序
func (r *SubmissionRepository) ListAllByForm(ctx context.Context, formID uint, filter SubmissionFilter) ([]model.Submission, error) {
	subs := []model.Submission{}
	query := r.db(ctx).
		Preload("Answers").
		Preload("Answers.Values").
		Where("form_id = ?", formID)
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	err := query.Order("created_at asc, id asc").Find(&subs).Error
	return subs, err
}

func (r *SubmissionRepository) CountByForm(ctx context.Context, formID uint) (int64, error) {
	var total int64
	err := r.db(ctx).Model(&model.Submission{}).Where("form_id = ?", formID).Count(&total).Error
	return total, err
}

// BulkUpdateScores 在一个事务内覆盖写入总分与每题得分，任何一条失败则整体回滚
func (r *SubmissionRepository) BulkUpdateScores(ctx context.Context, updates []model.ScoreUpdate, scoredAt time.Time) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := tx.Model(&model.Submission{}).
				Where("id = ?", u.SubmissionID).
				Updates(map[string]interface{}{
					"total_score": u.TotalScore,
					"scored_at":   scoredAt,
				}).Error; err != nil {
				return err
			}
			for answerID, score := range u.AnswerScores {
				if err := tx.Model(&model.Answer{}).
					Where("id = ? AND submission_id = ?", answerID, u.SubmissionID).
					Update("score", score).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *SubmissionRepository) Delete(ctx context.Context, id uint) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		var sub model.Submission
		if err := tx.First(&sub, id).Error; err != nil {
			return util.WrapNotFound(err, "submission", id)
		}
		answerIDs := tx.Model(&model.Answer{}).Select("id").Where("submission_id = ?", id)
		if err := tx.Where("answer_id IN (?)", answerIDs).Delete(&model.AnswerValue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
}
