package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/promoforge/coupon-service/internal/domain"
	pkgkafka "github.com/promoforge/coupon-service/pkg/kafka"
)

// Kafka topic constants for coupon domain events.
const (
	TopicCouponCreated = "ecommerce.coupon.created"
	TopicCouponUpdated = "ecommerce.coupon.updated"
	TopicCouponDeleted = "ecommerce.coupon.deleted"
	TopicCouponApplied = "ecommerce.coupon.applied"
)

// Aggregate type constant.
const AggregateTypeCoupon = "coupon"

// Source identifier for events originating from the coupon service.
const SourceCouponService = "coupon-service"

// CouponCreatedData is the payload for a coupon.created event.
type CouponCreatedData struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// CouponUpdatedData is the payload for a coupon.updated event.
type CouponUpdatedData struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// CouponDeletedData is the payload for a coupon.deleted event.
type CouponDeletedData struct {
	ID string `json:"id"`
}

// CouponAppliedData is the payload for a coupon.applied event.
type CouponAppliedData struct {
	CouponID       string  `json:"coupon_id"`
	CouponType     string  `json:"coupon_type"`
	CartTotalPrice float64 `json:"cart_total_price"`
}

// Producer publishes coupon domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the coupon service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCouponCreated publishes a coupon.created event.
func (p *Producer) PublishCouponCreated(ctx context.Context, coupon *domain.Coupon) error {
	data := CouponCreatedData{
		ID:             coupon.ID,
		Type:           coupon.Type,
		ExpirationDate: coupon.ExpirationDate,
	}

	event, err := pkgkafka.NewEvent(TopicCouponCreated, coupon.ID, AggregateTypeCoupon, SourceCouponService, data)
	if err != nil {
		return fmt.Errorf("create coupon.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCouponCreated, event); err != nil {
		return fmt.Errorf("publish coupon.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published coupon.created event",
		slog.String("coupon_id", coupon.ID),
		slog.String("coupon_type", coupon.Type),
	)

	return nil
}

// PublishCouponUpdated publishes a coupon.updated event.
func (p *Producer) PublishCouponUpdated(ctx context.Context, coupon *domain.Coupon) error {
	data := CouponUpdatedData{
		ID:             coupon.ID,
		Type:           coupon.Type,
		ExpirationDate: coupon.ExpirationDate,
	}

	event, err := pkgkafka.NewEvent(TopicCouponUpdated, coupon.ID, AggregateTypeCoupon, SourceCouponService, data)
	if err != nil {
		return fmt.Errorf("create coupon.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCouponUpdated, event); err != nil {
		return fmt.Errorf("publish coupon.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published coupon.updated event",
		slog.String("coupon_id", coupon.ID),
	)

	return nil
}

// PublishCouponDeleted publishes a coupon.deleted event.
func (p *Producer) PublishCouponDeleted(ctx context.Context, id string) error {
	event, err := pkgkafka.NewEvent(TopicCouponDeleted, id, AggregateTypeCoupon, SourceCouponService, CouponDeletedData{ID: id})
	if err != nil {
		return fmt.Errorf("create coupon.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCouponDeleted, event); err != nil {
		return fmt.Errorf("publish coupon.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published coupon.deleted event",
		slog.String("coupon_id", id),
	)

	return nil
}

// PublishCouponApplied publishes a coupon.applied event carrying the cart
// total after application.
func (p *Producer) PublishCouponApplied(ctx context.Context, coupon *domain.Coupon, cart *domain.Cart) error {
	data := CouponAppliedData{
		CouponID:       coupon.ID,
		CouponType:     coupon.Type,
		CartTotalPrice: cart.TotalPrice,
	}

	event, err := pkgkafka.NewEvent(TopicCouponApplied, coupon.ID, AggregateTypeCoupon, SourceCouponService, data)
	if err != nil {
		return fmt.Errorf("create coupon.applied event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCouponApplied, event); err != nil {
		return fmt.Errorf("publish coupon.applied event: %w", err)
	}

	p.logger.DebugContext(ctx, "published coupon.applied event",
		slog.String("coupon_id", coupon.ID),
		slog.Float64("cart_total_price", cart.TotalPrice),
	)

	return nil
}
