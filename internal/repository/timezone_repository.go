package repository

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"

	"gorm.io/gorm"
)

type TimeZoneRepository struct {
	DB *gorm.DB
}

func NewTimeZoneRepository(db *gorm.DB) *TimeZoneRepository {
	return &TimeZoneRepository{DB: db}
}

func (r *TimeZoneRepository) List(ctx context.Context) ([]model.MasterTimeZone, error) {
	zones := []model.MasterTimeZone{}
	err := database.FromContext(ctx, r.DB).Order("code asc").Find(&zones).Error
	return zones, err
}

func (r *TimeZoneRepository) FindByCode(ctx context.Context, code string) (*model.MasterTimeZone, error) {
	var zone model.MasterTimeZone
	if err := database.FromContext(ctx, r.DB).Where("code = ?", code).First(&zone).Error; err != nil {
		return nil, util.WrapNotFound(err, "time zone", code)
	}
	return &zone, nil
}
