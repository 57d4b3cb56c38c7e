package repository

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"
	"time"

	"gorm.io/gorm"
)

type ExportRepository struct {
	DB *gorm.DB
}

func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{DB: db}
}

func (r *ExportRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.DB)
}

func (r *ExportRepository) Create(ctx context.Context, artifact *model.ExportArtifact) error {
	return r.db(ctx).Create(artifact).Error
}

func (r *ExportRepository) FindByID(ctx context.Context, id string) (*model.ExportArtifact, error) {
	var artifact model.ExportArtifact
	if err := r.db(ctx).Where("id = ?", id).First(&artifact).Error; err != nil {
		return nil, util.WrapNotFound(err, "export", id)
	}
	return &artifact, nil
}

func (r *ExportRepository) ListExpired(ctx context.Context, now time.Time) ([]model.ExportArtifact, error) {
	var artifacts []model.ExportArtifact
	err := r.db(ctx).Where("expires_at <= ?", now).Find(&artifacts).Error
	return artifacts, err
}

// Delete 导出记录不需要保留，直接物理删除
func (r *ExportRepository) Delete(ctx context.Context, id string) error {
	return r.db(ctx).Unscoped().Where("id = ?", id).Delete(&model.ExportArtifact{}).Error
}
