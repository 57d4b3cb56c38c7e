package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/service"
	"questionnaire_backend/internal/util"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) util.Response {
	t.Helper()
	var resp util.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestErrorHandlerMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", util.NotFoundf("form %d", 3), http.StatusNotFound},
		{"validation", util.NewValidationError("title", "must not be blank"), http.StatusBadRequest},
		{"unknown tenant", fmt.Errorf("%w: acme", util.ErrUnknownTenant), http.StatusBadRequest},
		{"unauthorized", util.ErrUnauthorized, http.StatusUnauthorized},
		{"bad credentials", util.ErrInvalidCredential, http.StatusUnauthorized},
		{"forbidden", util.ErrForbidden, http.StatusForbidden},
		{"throttled", util.ErrTooManyAttempts, http.StatusTooManyRequests},
		{"invalid rule", fmt.Errorf("rule 4: %w", util.ErrInvalidRule), http.StatusInternalServerError},
		{"anything else", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/x", func(ctx *gin.Context) { ctx.Error(c.err) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != c.want {
			t.Fatalf("%s: status = %d, want %d", c.name, w.Code, c.want)
		}
		resp := decode(t, w)
		if resp.StatusCode != c.want || resp.AppError == nil {
			t.Fatalf("%s: unexpected envelope %+v", c.name, resp)
		}
		if c.want == http.StatusInternalServerError && resp.Message != "Internal Server Error" {
			t.Fatalf("%s: internal error leaked: %q", c.name, resp.Message)
		}
	}
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(ctx *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestAuthAndRole(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret"}}
	r := gin.New()
	r.Use(ErrorHandler())
	admin := r.Group("/", AuthMiddleware(cfg), RoleMiddleware(model.Editor))
	admin.GET("/forms", func(ctx *gin.Context) { util.Success(ctx, nil) })

	token := func(role model.UserRole) string {
		tok, err := util.GenerateJWT(model.NewUserWithID(1, "u", "u@example.com", role), "", "secret", time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}
		return "Bearer " + tok
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"analyst", token(model.Analyst), http.StatusForbidden},
		{"editor", token(model.Editor), http.StatusOK},
		{"admin", token(model.Admin), http.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/forms", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != c.want {
			t.Fatalf("%s: status = %d, want %d", c.name, w.Code, c.want)
		}
	}
}

type fakeRegistry struct {
	def     *gorm.DB
	tenants map[string]*gorm.DB
}

func (f *fakeRegistry) Resolve(tenantID string) (*gorm.DB, bool, error) {
	if tenantID == "" {
		return f.def, true, nil
	}
	db, ok := f.tenants[tenantID]
	return db, ok, nil
}

func TestTenant(t *testing.T) {
	reg := &fakeRegistry{def: &gorm.DB{}, tenants: map[string]*gorm.DB{"acme": {}}}
	r := gin.New()
	r.Use(ErrorHandler(), Tenant(reg))
	r.GET("/t", func(ctx *gin.Context) {
		util.Success(ctx, service.TenantFromContext(ctx.Request.Context()))
	})

	cases := []struct {
		tenant string
		want   int
		data   string
	}{
		{"", http.StatusOK, ""},
		{"acme", http.StatusOK, "acme"},
		{"globex", http.StatusBadRequest, ""},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		if c.tenant != "" {
			req.Header.Set(util.HeaderTenantID, c.tenant)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != c.want {
			t.Fatalf("tenant %q: status = %d, want %d", c.tenant, w.Code, c.want)
		}
		if c.want == http.StatusOK {
			if got, _ := decode(t, w).Data.(string); got != c.data {
				t.Fatalf("tenant %q: context tenant = %q", c.tenant, got)
			}
		}
	}
}

func TestAuthRejectsTokenFromAnotherTenant(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret"}}
	reg := &fakeRegistry{def: &gorm.DB{}, tenants: map[string]*gorm.DB{"acme": {}, "globex": {}}}
	r := gin.New()
	r.Use(ErrorHandler(), Tenant(reg))
	admin := r.Group("/", AuthMiddleware(cfg), RoleMiddleware(model.Editor))
	admin.GET("/forms", func(ctx *gin.Context) {
		util.Success(ctx, service.TenantFromContext(ctx.Request.Context()))
	})

	token := func(tenant string) string {
		tok, err := util.GenerateJWT(model.NewUserWithID(1, "u", "u@example.com", model.Editor), tenant, "secret", time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}
		return "Bearer " + tok
	}

	cases := []struct {
		name        string
		tokenTenant string
		header      string
		want        int
	}{
		{"same tenant", "acme", "acme", http.StatusOK},
		{"other tenant", "acme", "globex", http.StatusUnauthorized},
		{"tenant token on default db", "acme", "", http.StatusUnauthorized},
		{"default token on tenant", "", "acme", http.StatusUnauthorized},
		{"default token on default db", "", "", http.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/forms", nil)
		req.Header.Set("Authorization", token(c.tokenTenant))
		if c.header != "" {
			req.Header.Set(util.HeaderTenantID, c.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != c.want {
			t.Fatalf("%s: status = %d, want %d (%s)", c.name, w.Code, c.want, w.Body.String())
		}
	}
}
