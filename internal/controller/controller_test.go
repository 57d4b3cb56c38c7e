package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"questionnaire_backend/internal/middleware"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/database"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

func (m *memStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, util.NotFoundf("object %s", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	forms := repository.NewFormRepository(db)
	questions := repository.NewQuestionRepository(db)
	rules := repository.NewRuleRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	events := service.LogEventPublisher{}
	timezones := service.NewTimeZoneService(repository.NewTimeZoneRepository(db), nil)

	fc := NewFormController(service.NewFormService(forms))
	qc := NewQuestionController(service.NewQuestionService(forms, questions))
	rc := NewRuleController(service.NewRuleService(forms, rules, events))
	sc := NewSubmissionController(service.NewSubmissionService(forms, rules, submissions, events))
	scoring := NewScoringController(service.NewScoringService(forms, submissions, events))
	ec := NewExportController(service.NewExportService(forms, submissions, repository.NewExportRepository(db),
		&memStorage{data: map[string][]byte{}}, timezones, time.Hour))
	tz := NewTimeZoneController(timezones)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	api := r.Group("/api")
	api.GET("/timezones", tz.ListTimeZones)
	api.GET("/public/forms/:publicKey", sc.GetPublicForm)
	api.POST("/public/forms/:publicKey/submissions", sc.Submit)
	api.POST("/forms", fc.CreateForm)
	api.GET("/forms", fc.ListForms)
	api.GET("/forms/:formId", fc.GetForm)
	api.POST("/forms/:formId/publish", fc.PublishForm)
	api.POST("/forms/:formId/pages", fc.CreatePage)
	api.POST("/forms/:formId/questions", qc.CreateQuestion)
	api.POST("/forms/:formId/rules", rc.CreateRule)
	api.GET("/forms/:formId/submissions", sc.ListSubmissions)
	api.POST("/forms/:formId/scoring/recalculate", scoring.Recalculate)
	api.GET("/submissions/:id/score", scoring.GetSubmissionScore)
	api.POST("/forms/:formId/exports", ec.CreateExport)
	api.GET("/exports/:id/download", ec.DownloadExport)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, resp
}

func dataField(resp map[string]interface{}, key string) interface{} {
	data, _ := resp["data"].(map[string]interface{})
	return data[key]
}

func TestQuestionnaireFlow(t *testing.T) {
	r := newTestRouter(t)

	code, resp := do(t, r, http.MethodPost, "/api/forms", `{"title":"Wellbeing"}`)
	if code != http.StatusCreated {
		t.Fatalf("create form: %d %v", code, resp)
	}
	formID := int(dataField(resp, "id").(float64))
	publicKey := dataField(resp, "publicKey").(string)

	code, resp = do(t, r, http.MethodPost, fmt.Sprintf("/api/forms/%d/pages", formID), `{"title":"P1","order":1}`)
	if code != http.StatusCreated {
		t.Fatalf("create page: %d %v", code, resp)
	}
	pageID := int(dataField(resp, "id").(float64))

	body := fmt.Sprintf(`{"pageId":%d,"type":"Matrix","title":"Mood","required":true,
		"matrixRows":[{"label":"Mon"},{"label":"Tue"}],
		"matrixColumns":[{"label":"Good","score":5},{"label":"Bad","score":1}]}`, pageID)
	code, resp = do(t, r, http.MethodPost, fmt.Sprintf("/api/forms/%d/questions", formID), body)
	if code != http.StatusCreated {
		t.Fatalf("create question: %d %v", code, resp)
	}
	q := resp["data"].(map[string]interface{})
	questionID := int(q["id"].(float64))
	rows := q["matrixRows"].([]interface{})
	cols := q["matrixColumns"].([]interface{})
	rowID := func(i int) int { return int(rows[i].(map[string]interface{})["id"].(float64)) }
	colID := func(i int) int { return int(cols[i].(map[string]interface{})["id"].(float64)) }

	if code, _ := do(t, r, http.MethodGet, "/api/public/forms/"+publicKey, ""); code != http.StatusNotFound {
		t.Fatalf("unpublished form should be 404, got %d", code)
	}
	if code, resp := do(t, r, http.MethodPost, fmt.Sprintf("/api/forms/%d/publish", formID), ""); code != http.StatusOK {
		t.Fatalf("publish: %d %v", code, resp)
	}
	if code, _ := do(t, r, http.MethodGet, "/api/public/forms/"+publicKey, ""); code != http.StatusOK {
		t.Fatalf("published form should be visible, got %d", code)
	}

	answers := fmt.Sprintf(`{"respondentRef":"r1","answers":[{"questionId":%d,"matrix":[{"rowId":%d,"columnId":%d},{"rowId":%d,"columnId":%d}]}]}`,
		questionID, rowID(0), colID(0), rowID(1), colID(0))
	code, resp = do(t, r, http.MethodPost, "/api/public/forms/"+publicKey+"/submissions", answers)
	if code != http.StatusCreated {
		t.Fatalf("submit: %d %v", code, resp)
	}
	submissionID := int(dataField(resp, "submissionId").(float64))

	code, resp = do(t, r, http.MethodGet, fmt.Sprintf("/api/submissions/%d/score", submissionID), "")
	if code != http.StatusOK || fmt.Sprint(dataField(resp, "total")) != "10" {
		t.Fatalf("score: %d %v", code, resp)
	}

	code, resp = do(t, r, http.MethodPost, fmt.Sprintf("/api/forms/%d/scoring/recalculate", formID), "")
	if code != http.StatusOK || dataField(resp, "updatedCount").(float64) != 0 {
		t.Fatalf("recalculate: %d %v", code, resp)
	}

	code, resp = do(t, r, http.MethodGet, fmt.Sprintf("/api/forms/%d/submissions?page=1&limit=10", formID), "")
	meta, _ := resp["meta"].(map[string]interface{})
	if code != http.StatusOK || meta["total"].(float64) != 1 {
		t.Fatalf("list submissions: %d %v", code, resp)
	}

	code, resp = do(t, r, http.MethodPost, fmt.Sprintf("/api/forms/%d/exports", formID), `{"format":"csv","timeZone":"UTC"}`)
	if code != http.StatusCreated {
		t.Fatalf("export: %d %v", code, resp)
	}
	exportID := dataField(resp, "id").(string)

	req := httptest.NewRequest(http.MethodGet, "/api/exports/"+exportID+"/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), ".csv") {
		t.Fatalf("download: %d %v", w.Code, w.Header())
	}
	if !strings.Contains(w.Body.String(), "Mood") {
		t.Fatalf("csv missing question column: %q", w.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/forms", `{"title":`, http.StatusBadRequest},
		{"missing title", http.MethodPost, "/api/forms", `{}`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/forms/abc", "", http.StatusBadRequest},
		{"missing form", http.MethodGet, "/api/forms/999", "", http.StatusNotFound},
		{"unknown public key", http.MethodGet, "/api/public/forms/nope", "", http.StatusNotFound},
		{"bad export format", http.MethodPost, "/api/forms/1/exports", `{"format":"doc"}`, http.StatusBadRequest},
		{"unknown rule condition", http.MethodPost, "/api/forms/1/rules", `{"sourceQuestionId":1,"condition":"Contains","action":"HideQuestion"}`, http.StatusBadRequest},
		{"missing export", http.MethodGet, "/api/exports/does-not-exist/download", "", http.StatusNotFound},
	}
	for _, c := range cases {
		code, resp := do(t, r, c.method, c.path, c.body)
		if code != c.want {
			t.Fatalf("%s: status = %d, want %d (%v)", c.name, code, c.want, resp)
		}
		if resp["appError"] == nil {
			t.Fatalf("%s: envelope without appError: %v", c.name, resp)
		}
	}

	code, resp := do(t, r, http.MethodGet, "/api/forms", "")
	if code != http.StatusOK {
		t.Fatalf("empty list: %d", code)
	}
	if data, _ := resp["data"].([]interface{}); len(data) != 0 {
		t.Fatalf("expected empty list, got %v", resp["data"])
	}
}

func TestListTimeZones(t *testing.T) {
	r := newTestRouter(t)
	code, resp := do(t, r, http.MethodGet, "/api/timezones", "")
	zones, _ := resp["data"].([]interface{})
	if code != http.StatusOK || len(zones) == 0 {
		t.Fatalf("timezones: %d %v", code, resp)
	}
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	h := NewHealthController(db, nil)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/api/health", h.HealthCheck)

	code, resp := do(t, r, http.MethodGet, "/api/health", "")
	if code != http.StatusOK || dataField(resp, "status") != "ok" {
		t.Fatalf("healthy: %d %v", code, resp)
	}
	components, _ := dataField(resp, "components").(map[string]interface{})
	if components["database"] != "up" {
		t.Fatalf("components = %v", components)
	}
	if _, ok := components["redis"]; ok {
		t.Fatal("redis must not be reported when not configured")
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()
	code, resp = do(t, r, http.MethodGet, "/api/health", "")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("closed db: status = %d", code)
	}
	appErr, _ := resp["appError"].(map[string]interface{})
	details, _ := appErr["details"].([]interface{})
	if len(details) != 1 || details[0] != "database" {
		t.Fatalf("details = %v", appErr)
	}
}
