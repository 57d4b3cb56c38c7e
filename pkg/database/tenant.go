package database

import (
	"context"
	"questionnaire_backend/internal/config"
	"questionnaire_backend/pkg/logger"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ctxKey struct{}

// WithDB 将当前请求使用的租户连接放入 context
func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, ctxKey{}, db)
}

// FromContext 取出租户连接，没有时返回 fallback
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if ctx != nil {
		if db, ok := ctx.Value(ctxKey{}).(*gorm.DB); ok && db != nil {
			return db.WithContext(ctx)
		}
	}
	if ctx == nil {
		return fallback
	}
	return fallback.WithContext(ctx)
}

// OpenFunc 打开连接并完成迁移
type OpenFunc func(cfg *config.DatabaseConfig) (*gorm.DB, error)

// TenantRegistry 租户 ID 到数据库连接的映射，连接按需打开
type TenantRegistry struct {
	mu      sync.RWMutex
	def     *gorm.DB
	configs map[string]config.DatabaseConfig
	conns   map[string]*gorm.DB
	open    OpenFunc
}

func NewTenantRegistry(def *gorm.DB, tenants map[string]config.DatabaseConfig, open OpenFunc) *TenantRegistry {
	r := &TenantRegistry{
		def:   def,
		conns: make(map[string]*gorm.DB),
		open:  open,
	}
	r.UpdateTenants(tenants)
	return r
}

func (r *TenantRegistry) Default() *gorm.DB {
	return r.def
}

// Resolve 空 tenantID 返回默认库；未配置的租户返回 ok=false
func (r *TenantRegistry) Resolve(tenantID string) (*gorm.DB, bool, error) {
	if tenantID == "" {
		return r.def, true, nil
	}

	r.mu.RLock()
	db, opened := r.conns[tenantID]
	cfg, known := r.configs[tenantID]
	r.mu.RUnlock()

	if opened {
		return db, true, nil
	}
	if !known {
		return nil, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.conns[tenantID]; ok {
		return db, true, nil
	}
	db, err := r.open(&cfg)
	if err != nil {
		return nil, true, err
	}
	r.conns[tenantID] = db
	logger.Log.Info("Tenant database opened", zap.String("tenant", tenantID))
	return db, true, nil
}

// UpdateTenants 配置热更新时调用，已移除的租户连接会被关闭
func (r *TenantRegistry) UpdateTenants(tenants map[string]config.DatabaseConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]config.DatabaseConfig, len(tenants))
	for id, cfg := range tenants {
		next[id] = cfg
	}

	for id, db := range r.conns {
		cfg, ok := next[id]
		if ok && cfg == r.configs[id] {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		delete(r.conns, id)
	}
	r.configs = next
}

func (r *TenantRegistry) Tenants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	return ids
}
