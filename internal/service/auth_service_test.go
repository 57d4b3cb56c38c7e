package service

import (
	"context"
	"errors"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/util"
	"testing"
	"time"
)

type memoryThrottle struct {
	max   int
	fails map[string]int
}

func (m *memoryThrottle) Locked(ctx context.Context, key string) (bool, error) {
	return m.fails[key] >= m.max, nil
}

func (m *memoryThrottle) Fail(ctx context.Context, key string) error {
	m.fails[key]++
	return nil
}

func (m *memoryThrottle) Reset(ctx context.Context, key string) error {
	delete(m.fails, key)
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *memoryThrottle) {
	t.Helper()
	env := newTestEnv(t)
	throttle := &memoryThrottle{max: 3, fails: map[string]int{}}
	svc := NewAuthService(repository.NewUserRepository(env.db), throttle, config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour})
	if _, err := svc.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	return svc, throttle
}

func TestLoginSuccess(t *testing.T) {
	svc, throttle := newAuthService(t)
	ctx := context.Background()
	throttle.fails["admin@example.com"] = 2

	res, err := svc.Login(ctx, " admin@example.com ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := util.ParseJWT(res.Token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Role != model.Admin || claims.Email != "admin@example.com" || claims.TenantID != "" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if throttle.fails["admin@example.com"] != 0 {
		t.Fatal("successful login should reset the failure counter")
	}

	user, err := svc.CurrentUser(ctx, claims)
	if err != nil || user.LastLogin == nil {
		t.Fatalf("CurrentUser = %+v, %v", user, err)
	}
}

func TestLoginThrottled(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, "admin@example.com", "wrong"); !errors.Is(err, util.ErrInvalidCredential) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i, err)
		}
	}
	if _, err := svc.Login(ctx, "admin@example.com", "s3cret-pass"); !errors.Is(err, util.ErrTooManyAttempts) {
		t.Fatalf("expected lock after repeated failures, got %v", err)
	}
}

func TestLoginUnknownEmailCountsAsFailure(t *testing.T) {
	svc, throttle := newAuthService(t)
	if _, err := svc.Login(context.Background(), "ghost@example.com", "whatever"); !errors.Is(err, util.ErrInvalidCredential) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if throttle.fails["ghost@example.com"] != 1 {
		t.Fatal("unknown email should be throttled too")
	}
}

func TestLoginThrottleAndTokenAreTenantScoped(t *testing.T) {
	svc, throttle := newAuthService(t)
	acme := WithTenant(context.Background(), "acme")

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(acme, "Admin@example.com", "wrong"); !errors.Is(err, util.ErrInvalidCredential) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i, err)
		}
	}
	if throttle.fails["acme:admin@example.com"] != 3 {
		t.Fatalf("failures not keyed by tenant: %v", throttle.fails)
	}
	if _, err := svc.Login(acme, "admin@example.com", "s3cret-pass"); !errors.Is(err, util.ErrTooManyAttempts) {
		t.Fatalf("expected acme to be locked, got %v", err)
	}

	globex := WithTenant(context.Background(), "globex")
	res, err := svc.Login(globex, "admin@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("lock leaked into another tenant: %v", err)
	}
	claims, err := util.ParseJWT(res.Token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.TenantID != "globex" {
		t.Fatalf("token tenant = %q, want globex", claims.TenantID)
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	again, err := svc.EnsureAdmin(ctx, "Other", "admin@example.com", "another-pass")
	if err != nil || again.Name != "Admin" {
		t.Fatalf("EnsureAdmin should keep existing account, got %+v, %v", again, err)
	}
	if _, err := svc.EnsureAdmin(ctx, "Short", "short@example.com", "1234"); !util.IsValidation(err) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	if _, err := svc.CurrentUser(ctx, nil); !errors.Is(err, util.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without claims, got %v", err)
	}
}
