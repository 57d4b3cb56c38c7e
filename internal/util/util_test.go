package util

import (
	"errors"
	"fmt"
	"questionnaire_backend/internal/model"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func TestJWTRoundTrip(t *testing.T) {
	user := model.NewUserWithID(42, "Ada", "ada@example.com", model.Editor)
	token, err := GenerateJWT(user, "acme", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	claims, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 42 || claims.Role != model.Editor || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Subject != "42" || claims.Issuer != TokenIssuer || claims.ID == "" {
		t.Fatalf("registered claims not set: %+v", claims.RegisteredClaims)
	}
	if !claims.AllowsTenant("acme") || claims.AllowsTenant("globex") || claims.AllowsTenant("") {
		t.Fatalf("tenant binding wrong for %q", claims.TenantID)
	}
	if _, err := ParseJWT(token, "other"); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestJWTExpired(t *testing.T) {
	user := model.NewUserWithID(1, "A", "a@example.com", model.Admin)
	token, err := GenerateJWT(user, "", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestJWTRejectsForeignIssuer(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for foreign issuer, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsNotFound(WrapNotFound(gorm.ErrRecordNotFound, "form", 3)) {
		t.Fatal("wrapped gorm not found must be classified as not found")
	}
	if !IsNotFound(fmt.Errorf("load: %w", NotFoundf("rule %d", 9))) {
		t.Fatal("nested not found lost")
	}
	other := errors.New("boom")
	if WrapNotFound(other, "form", 1) != other {
		t.Fatal("non not-found errors must pass through")
	}
	if !IsValidation(fmt.Errorf("ctx: %w", NewValidationError("title", "required"))) {
		t.Fatal("validation error not detected")
	}
	if IsValidation(other) {
		t.Fatal("plain error classified as validation")
	}
}
