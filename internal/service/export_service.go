package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"questionnaire_backend/pkg/monitoring"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type ExportRequest struct {
	Format   string     `json:"format" binding:"required,oneof=csv xlsx pdf"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
	Status   string     `json:"status" binding:"omitempty,oneof=completed terminated"`
	TimeZone string     `json:"timeZone"`
}

// FileStorage 导出文件的存取
type FileStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type ExportService struct {
	forms       FormStore
	submissions SubmissionStore
	exports     ExportStore
	storage     FileStorage
	timezones   *TimeZoneService
	ttl         atomic.Int64
	now         func() time.Time
}

func NewExportService(forms FormStore, submissions SubmissionStore, exports ExportStore, storage FileStorage, timezones *TimeZoneService, ttl time.Duration) *ExportService {
	s := &ExportService{
		forms:       forms,
		submissions: submissions,
		exports:     exports,
		storage:     storage,
		timezones:   timezones,
		now:         time.Now,
	}
	s.SetTTL(ttl)
	return s
}

// SetTTL 配置热更新时调用，只影响之后生成的导出
func (s *ExportService) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s.ttl.Store(int64(ttl))
}

func (s *ExportService) TTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

func (s *ExportService) CreateExport(ctx context.Context, formID uint, req *ExportRequest) (*model.ExportArtifact, error) {
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return nil, util.NewValidationError("from", "must not be after to")
	}
	loc, err := s.timezones.Resolve(ctx, req.TimeZone)
	if err != nil {
		return nil, err
	}

	form, err := s.forms.LoadStructure(ctx, formID)
	if err != nil {
		return nil, err
	}
	structure := model.NewFormStructure(form)

	subs, err := s.submissions.ListAllByForm(ctx, formID, repository.SubmissionFilter{
		From:   req.From,
		To:     req.To,
		Status: req.Status,
	})
	if err != nil {
		return nil, err
	}

	rendered, err := renderExport(req.Format, buildExportTable(structure, subs, loc))
	if err != nil {
		return nil, err
	}

	now := s.now()
	artifact := &model.ExportArtifact{
		UUIDBase:    model.UUIDBase{ID: model.GenerateUUID()},
		FormID:      formID,
		Format:      req.Format,
		ContentType: rendered.ContentType,
		Size:        int64(len(rendered.Data)),
		ExpiresAt:   now.Add(s.TTL()),
	}
	artifact.FileName = fmt.Sprintf("form-%d-%s.%s", formID, now.Format("20060102-150405"), rendered.Ext)
	artifact.StorageKey = fmt.Sprintf("exports/%s.%s", artifact.ID, rendered.Ext)

	if err := s.storage.Upload(ctx, artifact.StorageKey, bytes.NewReader(rendered.Data), artifact.Size, artifact.ContentType); err != nil {
		return nil, err
	}
	if err := s.exports.Create(ctx, artifact); err != nil {
		if delErr := s.storage.Delete(ctx, artifact.StorageKey); delErr != nil {
			logger.Log.Warn("Failed to remove orphaned export", zap.String("key", artifact.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}

	monitoring.ExportsTotal.WithLabelValues(req.Format).Inc()
	logger.Log.Info("Export created",
		zap.Uint("formId", formID),
		zap.String("exportId", artifact.ID),
		zap.String("format", req.Format),
		zap.Int("rows", len(subs)),
	)
	return artifact, nil
}

// GetExport 已过期的导出视为不存在
func (s *ExportService) GetExport(ctx context.Context, id string) (*model.ExportArtifact, error) {
	artifact, err := s.exports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact.Expired(s.now()) {
		return nil, util.NotFoundf("export %s expired", id)
	}
	return artifact, nil
}

// Download 调用方负责关闭返回的 reader
func (s *ExportService) Download(ctx context.Context, id string) (*model.ExportArtifact, io.ReadCloser, error) {
	artifact, err := s.GetExport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.storage.Download(ctx, artifact.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return artifact, body, nil
}

// PurgeExpired 删除过期导出的文件与记录，返回删除数量
func (s *ExportService) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := s.exports.ListExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, artifact := range expired {
		if err := s.storage.Delete(ctx, artifact.StorageKey); err != nil && !util.IsNotFound(err) {
			logger.Log.Warn("Failed to delete export file", zap.String("key", artifact.StorageKey), zap.Error(err))
			continue
		}
		if err := s.exports.Delete(ctx, artifact.ID); err != nil {
			return purged, err
		}
		purged++
	}
	if purged > 0 {
		logger.Log.Info("Expired exports purged", zap.Int("count", purged))
	}
	return purged, nil
}
