package repository

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"

	"gorm.io/gorm"
)

type RuleRepository struct {
	DB *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{DB: db}
}

func (r *RuleRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.DB)
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.Rule) error {
	return r.db(ctx).Create(rule).Error
}

func (r *RuleRepository) Update(ctx context.Context, rule *model.Rule) error {
	return r.db(ctx).Save(rule).Error
}

func (r *RuleRepository) FindByID(ctx context.Context, id uint) (*model.Rule, error) {
	var rule model.Rule
	if err := r.db(ctx).First(&rule, id).Error; err != nil {
		return nil, util.WrapNotFound(err, "rule", id)
	}
	return &rule, nil
}

// ListByForm 按求值顺序返回
func (r *RuleRepository) ListByForm(ctx context.Context, formID uint) ([]model.Rule, error) {
	rules := []model.Rule{}
	err := r.db(ctx).Where("form_id = ?", formID).Order(orderBySort).Find(&rules).Error
	return rules, err
}

func (r *RuleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db(ctx).Delete(&model.Rule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.NotFoundf("rule %d", id)
	}
	return nil
}
