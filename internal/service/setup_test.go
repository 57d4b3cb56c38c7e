package service

import (
	"bytes"
	"context"
	"io"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordedEvents struct {
	mu    sync.Mutex
	types []string
}

func (r *recordedEvents) Publish(ctx context.Context, eventType string, payload interface{}) {
	r.mu.Lock()
	r.types = append(r.types, eventType)
	r.mu.Unlock()
}

func (r *recordedEvents) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == eventType {
			n++
		}
	}
	return n
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, util.NotFoundf("object %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

type testEnv struct {
	db          *gorm.DB
	forms       *repository.FormRepository
	questions   *repository.QuestionRepository
	rules       *repository.RuleRepository
	submissions *repository.SubmissionRepository
	exports     *repository.ExportRepository
	events      *recordedEvents
	storage     *memoryStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &testEnv{
		db:          db,
		forms:       repository.NewFormRepository(db),
		questions:   repository.NewQuestionRepository(db),
		rules:       repository.NewRuleRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		exports:     repository.NewExportRepository(db),
		events:      &recordedEvents{},
		storage:     newMemoryStorage(),
	}
}

// seedSample 写入 sampleForm 及给定规则
func (e *testEnv) seedSample(t *testing.T, rules ...model.Rule) *model.Form {
	t.Helper()
	form := sampleForm()
	if err := e.db.Create(form).Error; err != nil {
		t.Fatalf("seed form: %v", err)
	}
	for i := range rules {
		rules[i].FormID = form.ID
		if err := e.db.Create(&rules[i]).Error; err != nil {
			t.Fatalf("seed rule: %v", err)
		}
	}
	return form
}

func (e *testEnv) submissionService() *SubmissionService {
	return NewSubmissionService(e.forms, e.rules, e.submissions, e.events)
}
