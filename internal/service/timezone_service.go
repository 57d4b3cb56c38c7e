package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"strings"
	"sync"
	"time"
)

// TimeZoneCache 时区代码到 *time.Location 的读穿缓存，由 App 持有并注入
type TimeZoneCache struct {
	mu        sync.RWMutex
	locations map[string]*time.Location
}

func NewTimeZoneCache() *TimeZoneCache {
	return &TimeZoneCache{locations: make(map[string]*time.Location)}
}

func (c *TimeZoneCache) Get(code string) (*time.Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.locations[code]
	return loc, ok
}

func (c *TimeZoneCache) Put(code string, loc *time.Location) {
	c.mu.Lock()
	c.locations[code] = loc
	c.mu.Unlock()
}

type TimeZoneService struct {
	repo  TimeZoneStore
	cache *TimeZoneCache
}

func NewTimeZoneService(repo TimeZoneStore, cache *TimeZoneCache) *TimeZoneService {
	if cache == nil {
		cache = NewTimeZoneCache()
	}
	return &TimeZoneService{repo: repo, cache: cache}
}

func (s *TimeZoneService) List(ctx context.Context) ([]model.MasterTimeZone, error) {
	return s.repo.List(ctx)
}

// Resolve 先查主数据中的代码，再按 IANA 名称解析，空值为 UTC
func (s *TimeZoneService) Resolve(ctx context.Context, code string) (*time.Location, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return time.UTC, nil
	}
	if loc, ok := s.cache.Get(code); ok {
		return loc, nil
	}

	name := code
	zone, err := s.repo.FindByCode(ctx, code)
	switch {
	case err == nil:
		name = zone.IANAName
	case !util.IsNotFound(err):
		return nil, err
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, util.NewValidationError("timeZone", "unknown time zone %q", code)
	}
	s.cache.Put(code, loc)
	return loc, nil
}
