package services

import (
	"context"
	"errors"
	"log"
	"time"

	"autoparts-store/models"
	"autoparts-store/repository"
)

var ErrInvalidState = errors.New("invalid status transition")

// EventPublisher emits order status-change events for the notifier pipeline.
type EventPublisher interface {
	PublishStatusEvent(ev models.OrderStatusEvent) error
}

// AdminService drives the review workflow: listing orders for verification,
// approving or rejecting payments, and the manual cascading deletes.
type AdminService struct {
	orders    repository.OrderRepository
	catalog   repository.CatalogRepository
	publisher EventPublisher
}

func NewAdminService(orders repository.OrderRepository, catalog repository.CatalogRepository, publisher EventPublisher) *AdminService {
	return &AdminService{orders: orders, catalog: catalog, publisher: publisher}
}

func (s *AdminService) ListOrders(ctx context.Context) ([]models.AdminOrder, error) {
	return s.orders.ListAllOrders(ctx)
}

// OrderDetails returns the order with its items and payment. A missing
// payment row is not an error; the payment pointer is nil.
func (s *AdminService) OrderDetails(ctx context.Context, orderID string) (*models.Order, []models.OrderItem, *models.Payment, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := s.orders.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	payment, err := s.orders.GetPaymentByOrder(ctx, orderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil, err
	}
	return order, items, payment, nil
}

// VerifyPayment marks the payment verified and the order approved.
func (s *AdminService) VerifyPayment(ctx context.Context, orderID string) error {
	return s.review(ctx, orderID, models.PaymentVerified, models.OrderApproved)
}

// RejectOrder marks both the payment and the order rejected.
func (s *AdminService) RejectOrder(ctx context.Context, orderID string) error {
	return s.review(ctx, orderID, models.PaymentRejected, models.OrderRejected)
}

func (s *AdminService) review(ctx context.Context, orderID string, ps models.PaymentStatus, os models.OrderStatus) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !models.CanTransition(order.Status, os) {
		return ErrInvalidState
	}

	old, err := s.orders.Review(ctx, orderID, ps, os)
	if err != nil {
		return err
	}

	s.publish(models.OrderStatusEvent{
		OrderID:   orderID,
		UserID:    order.UserID,
		OldStatus: old,
		NewStatus: os,
		Occurred:  time.Now().UTC(),
	})
	return nil
}

// DeleteOrder cascades by hand: items, then payments, then the order itself.
// Each delete is its own call; a failure stops the cascade where it stands.
func (s *AdminService) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return err
	}
	if err := s.orders.DeleteOrderItemsByOrder(ctx, orderID); err != nil {
		return err
	}
	if err := s.orders.DeletePaymentsByOrder(ctx, orderID); err != nil {
		return err
	}
	return s.orders.DeleteOrder(ctx, orderID)
}

// DeleteProduct removes a product. While order items reference it the plain
// delete fails with the constraint error; force deletes those rows first and
// retries, erasing the product from order histories.
func (s *AdminService) DeleteProduct(ctx context.Context, productID string, force bool) error {
	if force {
		n, err := s.catalog.DeleteOrderItemsByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("force delete: removed %d order items referencing product %s", n, productID)
		}
	}
	return s.catalog.DeleteProduct(ctx, productID)
}

func (s *AdminService) publish(ev models.OrderStatusEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatusEvent(ev); err != nil {
		log.Printf("Failed to publish order status event: %v", err)
	}
}
