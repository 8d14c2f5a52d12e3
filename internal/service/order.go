package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/events"
	"github.com/gersemi/storefront/internal/repository"
	"github.com/gersemi/storefront/internal/stock"
	"github.com/gersemi/storefront/internal/telemetry"
)

type orderService struct {
	store           repository.Store
	logger          *slog.Logger
	publisher       events.Publisher
	courierFeeCents int32
}

// NewOrderService creates the order service. courierFeeCents is the flat
// delivery fee applied to courier orders; pickup orders ship free.
func NewOrderService(store repository.Store, logger *slog.Logger, publisher events.Publisher, courierFeeCents int32) domain.OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderService{
		store:           store,
		logger:          logger,
		publisher:       publisher,
		courierFeeCents: courierFeeCents,
	}
}

// Create converts a cart into an immutable order inside one transaction:
// header, frozen line snapshots, commit-time stock decrements, totals and the
// soft-close of the source cart all commit or roll back together. The cart's
// lines are deleted best-effort after commit; a cleanup failure is logged and
// never invalidates the order.
func (s *orderService) Create(ctx context.Context, cartID pgtype.UUID, info domain.CustomerInfo) (*domain.OrderDetail, error) {
	const op = "order.create"

	if info.Email == "" || info.Phone == "" {
		return nil, domain.ErrMissingCustomer
	}

	var detail *domain.OrderDetail
	var cartLineIDs []pgtype.UUID

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		cart, err := q.GetCartForUpdate(ctx, cartID)
		if err != nil {
			if noRows(err) {
				return domain.ErrCartNotFound
			}
			return domain.Internal(err, op, "failed to lock cart")
		}
		if !cart.Active() {
			return domain.ErrCartConverted
		}

		lines, err := q.ListCartLines(ctx, cartID)
		if err != nil {
			return domain.Internal(err, op, "failed to list cart lines")
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		number, err := generateOrderNumber()
		if err != nil {
			return domain.Internal(err, op, "failed to generate order number")
		}

		order, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			OrderNumber:     number,
			UserID:          info.UserID,
			Email:           info.Email,
			Phone:           info.Phone,
			Status:          domain.OrderStatusPending,
			PaymentStatus:   domain.PaymentStatusCashOnDelivery,
			DeliveryMethod:  info.DeliveryMethod,
			DeliveryDate:    info.DeliveryDate,
			DeliverySlot:    textOrNull(info.DeliverySlot),
			ShippingAddress: copyAddress(info.ShippingAddress),
			BillingAddress:  copyAddress(info.BillingAddress),
			Currency:        lines[0].Currency,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		var subtotal int32
		orderLines := make([]domain.OrderLine, 0, len(lines))
		for _, line := range lines {
			variant, err := q.GetVariantForUpdate(ctx, line.VariantID)
			if err != nil {
				return domain.Internal(err, op, "failed to lock variant")
			}
			if variant.TrackInventory && !variant.AllowBackorder {
				n, err := q.DecrementVariantStock(ctx, repository.DecrementVariantStockParams{
					ID:       line.VariantID,
					Quantity: line.Quantity,
				})
				if err != nil {
					return domain.Internal(err, op, "failed to decrement stock")
				}
				if n == 0 {
					telemetry.Business.RecordStockConflict()
					return domain.WrapError(
						&stock.InsufficientStockError{Available: variant.StockQuantity},
						domain.ECONFLICT, op,
						fmt.Sprintf("%s: only %d left in stock", line.SKU, variant.StockQuantity),
					)
				}
			}

			orderLine, err := q.CreateOrderLine(ctx, repository.CreateOrderLineParams{
				OrderID:         order.ID,
				VariantID:       line.VariantID,
				ProductName:     line.ProductName,
				VariantName:     line.VariantName,
				SKU:             line.SKU,
				UnitPriceCents:  line.UnitPriceCents,
				Quantity:        line.Quantity,
				TotalPriceCents: line.Quantity * line.UnitPriceCents,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to create order line")
			}
			subtotal += orderLine.TotalPriceCents
			orderLines = append(orderLines, orderLine)
			cartLineIDs = append(cartLineIDs, line.ID)
		}

		var shipping int32
		if info.DeliveryMethod == domain.DeliveryCourier {
			shipping = s.courierFeeCents
		}
		total := subtotal + shipping

		if err := q.UpdateOrderTotals(ctx, repository.UpdateOrderTotalsParams{
			ID:            order.ID,
			SubtotalCents: subtotal,
			ShippingCents: shipping,
			TotalCents:    total,
		}); err != nil {
			return domain.Internal(err, op, "failed to write totals")
		}

		if err := q.MarkCartAbandoned(ctx, cartID); err != nil {
			return domain.Internal(err, op, "failed to close cart")
		}

		order.SubtotalCents = subtotal
		order.ShippingCents = shipping
		order.TotalCents = total
		detail = &domain.OrderDetail{Order: order, Lines: orderLines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range cartLineIDs {
		if err := s.store.DeleteCartLine(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to remove converted cart line",
				"cart_id", cartID.String(), "line_id", id.String(), "error", err)
		}
	}
	if err := s.publisher.OrderCreated(ctx, detail); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order event",
			"order_number", detail.Order.OrderNumber, "error", err)
	}

	telemetry.Business.RecordOrderCreated(detail.Order.TotalCents, len(detail.Lines))
	s.logger.InfoContext(ctx, "order created",
		"order_number", detail.Order.OrderNumber,
		"total_cents", detail.Order.TotalCents,
		"lines", len(detail.Lines))
	return detail, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID pgtype.UUID) (*domain.OrderDetail, error) {
	const op = "order.get"

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if noRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}
	return s.withLines(ctx, op, order)
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.OrderDetail, error) {
	const op = "order.get_by_number"

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if noRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}
	return s.withLines(ctx, op, order)
}

func (s *orderService) withLines(ctx context.Context, op string, order domain.Order) (*domain.OrderDetail, error) {
	lines, err := s.store.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order lines")
	}
	return &domain.OrderDetail{Order: order, Lines: lines}, nil
}

// UpdateStatus advances the lifecycle axis under a row lock. Delivery settles
// the cash-on-delivery payment as paid; cancellation marks it refused and
// wipes the fulfillment progress display.
func (s *orderService) UpdateStatus(ctx context.Context, orderID pgtype.UUID, to domain.OrderStatus) error {
	const op = "order.update_status"

	return s.store.InTx(ctx, func(q repository.Querier) error {
		order, err := q.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if noRows(err) {
				return domain.ErrOrderNotFound
			}
			return domain.Internal(err, op, "failed to lock order")
		}
		if !domain.ValidStatusTransition(order.Status, to) {
			return domain.Conflict(op,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, to))
		}

		if err := q.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
			ID:     orderID,
			Status: to,
		}); err != nil {
			return domain.Internal(err, op, "failed to update status")
		}

		switch to {
		case domain.OrderStatusDelivered:
			err = q.UpdateOrderPaymentStatus(ctx, repository.UpdateOrderPaymentStatusParams{
				ID:            orderID,
				PaymentStatus: domain.PaymentStatusPaid,
			})
		case domain.OrderStatusCancelled:
			err = q.UpdateOrderPaymentStatus(ctx, repository.UpdateOrderPaymentStatusParams{
				ID:            orderID,
				PaymentStatus: domain.PaymentStatusRefused,
			})
			if err == nil && domain.ValidFulfillmentTransition(order.DeliveryMethod, order.FulfillmentStatus, domain.FulfillmentCancelled) {
				err = q.UpdateOrderFulfillment(ctx, repository.UpdateOrderFulfillmentParams{
					ID:                orderID,
					FulfillmentStatus: domain.FulfillmentCancelled,
				})
			}
		}
		if err != nil {
			return domain.Internal(err, op, "failed to settle payment state")
		}
		return nil
	})
}

func (s *orderService) UpdateFulfillment(ctx context.Context, orderID pgtype.UUID, to domain.FulfillmentStatus) error {
	const op = "order.update_fulfillment"

	return s.store.InTx(ctx, func(q repository.Querier) error {
		order, err := q.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if noRows(err) {
				return domain.ErrOrderNotFound
			}
			return domain.Internal(err, op, "failed to lock order")
		}
		if !domain.ValidFulfillmentTransition(order.DeliveryMethod, order.FulfillmentStatus, to) {
			return domain.Conflict(op,
				fmt.Sprintf("cannot move %s fulfillment from %s to %s",
					order.DeliveryMethod, order.FulfillmentStatus, to))
		}

		if err := q.UpdateOrderFulfillment(ctx, repository.UpdateOrderFulfillmentParams{
			ID:                orderID,
			FulfillmentStatus: to,
		}); err != nil {
			return domain.Internal(err, op, "failed to update fulfillment")
		}
		return nil
	})
}

// generateOrderNumber builds a human-readable order number: the current date
// plus a random suffix. The unique index on order_number catches the rare
// same-day collision and aborts the transaction.
func generateOrderNumber() (string, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	suffix := binary.BigEndian.Uint16(buf[:])
	return fmt.Sprintf("ORD-%s-%04X", time.Now().Format("20060102"), suffix), nil
}

// copyAddress clones an address snapshot so later edits to the caller's map
// can never reach the stored order.
func copyAddress(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
