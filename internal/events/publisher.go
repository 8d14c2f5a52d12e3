// Package events publishes domain events for downstream consumers
// (fulfillment tooling, analytics). Publishing is best-effort: a failed
// publish is logged by the caller and never fails the originating operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gersemi/storefront/internal/domain"
)

// Publisher emits domain events.
type Publisher interface {
	OrderCreated(ctx context.Context, detail *domain.OrderDetail) error
	Close()
}

// SubjectOrderCreated is the subject new-order events are published on.
const SubjectOrderCreated = "orders.created"

type orderCreatedEvent struct {
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	Email          string    `json:"email"`
	DeliveryMethod string    `json:"delivery_method"`
	TotalCents     int32     `json:"total_cents"`
	Currency       string    `json:"currency"`
	LineCount      int       `json:"line_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// NATSPublisher publishes events to a NATS server.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("storefront"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) OrderCreated(ctx context.Context, detail *domain.OrderDetail) error {
	event := orderCreatedEvent{
		OrderID:        detail.Order.ID.String(),
		OrderNumber:    detail.Order.OrderNumber,
		Email:          detail.Order.Email,
		DeliveryMethod: string(detail.Order.DeliveryMethod),
		TotalCents:     detail.Order.TotalCents,
		Currency:       detail.Order.Currency,
		LineCount:      len(detail.Lines),
		CreatedAt:      detail.Order.CreatedAt.Time,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectOrderCreated, data)
}

// Close drains pending publishes before disconnecting.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// NoopPublisher discards all events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(ctx context.Context, detail *domain.OrderDetail) error {
	return nil
}

func (NoopPublisher) Close() {}
