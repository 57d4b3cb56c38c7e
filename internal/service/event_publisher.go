package service

import (
	"context"
	"encoding/json"
	"questionnaire_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

const (
	EventSubmissionCreated   = "submission.created"
	EventScoringRecalculated = "scoring.recalculated"
	EventRuleChanged         = "rule.changed"
)

// EventPublisher 发布领域事件，失败只记录日志，不影响调用方
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

type messagePublisher interface {
	Publish(ctx context.Context, eventType string, body []byte) error
}

type eventEnvelope struct {
	Type       string      `json:"type"`
	TenantID   string      `json:"tenantId,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

type tenantKey struct{}

// WithTenant 记录当前租户，事件中会带上
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

func TenantFromContext(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey{}).(string)
	return id
}

// AMQPEventPublisher 事件写入 RabbitMQ 队列
type AMQPEventPublisher struct {
	client  messagePublisher
	timeout time.Duration
}

func NewAMQPEventPublisher(client messagePublisher) *AMQPEventPublisher {
	return &AMQPEventPublisher{client: client, timeout: 3 * time.Second}
}

func (p *AMQPEventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) {
	body, err := json.Marshal(eventEnvelope{
		Type:       eventType,
		TenantID:   TenantFromContext(ctx),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		logger.Log.Error("Failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	// 请求结束不应取消已开始的投递
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.client.Publish(pubCtx, eventType, body); err != nil {
		logger.Log.Error("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// LogEventPublisher 未启用消息队列时使用
type LogEventPublisher struct{}

func (LogEventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) {
	logger.Log.Info("Domain event",
		zap.String("type", eventType),
		zap.String("tenant", TenantFromContext(ctx)),
		zap.Any("payload", payload),
	)
}
