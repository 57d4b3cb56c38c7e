package util

import (
	"questionnaire_backend/internal/model"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer    = "questionnaire-backend"
	ContextUserKey = "user"
)

// Claims TenantID 为签发时的租户，默认库为空
type Claims struct {
	UserID   uint           `json:"uid"`
	Role     model.UserRole `json:"role"`
	Email    string         `json:"email"`
	TenantID string         `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

// AllowsTenant 令牌只能在签发它的租户下使用
func (c *Claims) AllowsTenant(tenantID string) bool {
	return c.TenantID == tenantID
}

func GenerateJWT(user *model.User, tenantID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    TokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func GetUserFromContext(c *gin.Context) *Claims {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
