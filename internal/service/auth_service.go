package service

import (
	"context"
	"fmt"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// LoginThrottle 登录失败计数，达到上限后在锁定时间内拒绝登录
type LoginThrottle interface {
	Locked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type RedisLoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	lock        time.Duration
}

func NewRedisLoginThrottle(client *redis.Client, cfg *config.SecurityConfig) *RedisLoginThrottle {
	maxAttempts := cfg.LoginMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	lock := time.Duration(cfg.LoginLockMinutes) * time.Minute
	if lock <= 0 {
		lock = 15 * time.Minute
	}
	return &RedisLoginThrottle{client: client, maxAttempts: maxAttempts, lock: lock}
}

func throttleKey(key string) string {
	return "login:fail:" + key
}

// loginKey 失败计数按租户隔离，默认库只用邮箱
func loginKey(ctx context.Context, email string) string {
	key := strings.ToLower(email)
	if tenant := TenantFromContext(ctx); tenant != "" {
		key = tenant + ":" + key
	}
	return key
}

func (t *RedisLoginThrottle) Locked(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Get(ctx, throttleKey(key)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= t.maxAttempts, nil
}

// Fail 计数窗口从第一次失败开始计算
func (t *RedisLoginThrottle) Fail(ctx context.Context, key string) error {
	k := throttleKey(key)
	n, err := t.client.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	// 达到上限后重新计时锁定
	if n == 1 || n >= int64(t.maxAttempts) {
		return t.client.Expire(ctx, k, t.lock).Err()
	}
	return nil
}

func (t *RedisLoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, throttleKey(key)).Err()
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

type AuthService struct {
	users    UserStore
	throttle LoginThrottle
	jwt      config.JWTConfig
}

func NewAuthService(users UserStore, throttle LoginThrottle, jwtCfg config.JWTConfig) *AuthService {
	return &AuthService{users: users, throttle: throttle, jwt: jwtCfg}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	key := loginKey(ctx, email)

	locked, err := s.throttle.Locked(ctx, key)
	if err != nil {
		// 限流存储不可用时不阻断登录
		logger.Log.Warn("Login throttle unavailable", zap.Error(err))
	}
	if locked {
		return nil, util.ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if util.IsNotFound(err) {
			s.recordFailure(ctx, key)
			return nil, util.ErrInvalidCredential
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordFailure(ctx, key)
		return nil, util.ErrInvalidCredential
	}
	if user.Disabled {
		return nil, util.ErrForbidden
	}

	if err := s.throttle.Reset(ctx, key); err != nil {
		logger.Log.Warn("Failed to reset login throttle", zap.Error(err))
	}
	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}

	token, err := util.GenerateJWT(user, TenantFromContext(ctx), s.jwt.Secret, s.jwt.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: now.Add(s.jwt.ExpireTime), User: user}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if err := s.throttle.Fail(ctx, key); err != nil {
		logger.Log.Warn("Failed to record login failure", zap.Error(err))
	}
}

// EnsureAdmin 邮箱不存在时创建管理员账号
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !util.IsNotFound(err) {
		return nil, err
	}
	if len(password) < 8 {
		return nil, util.NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := model.NewUser(name, email, string(hash), model.Admin)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("Admin account created", zap.String("email", email))
	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, claims *util.Claims) (*model.User, error) {
	if claims == nil {
		return nil, util.ErrUnauthorized
	}
	return s.users.FindByID(ctx, claims.UserID)
}
