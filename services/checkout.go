package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"autoparts-store/cart"
	"autoparts-store/models"
	"autoparts-store/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrMissingAddress     = errors.New("shipping address is required")
	ErrMissingTransaction = errors.New("transaction id is required")
)

// CheckoutService converts a user's cart into the order, order-item and
// payment rows. The writes are strictly sequential; a failure after the
// order row exists triggers best-effort compensating deletes so the attempt
// appears atomic to the user.
type CheckoutService struct {
	orders repository.OrderRepository
	cart   *cart.Store

	// idempotency guards repeated checkout attempts carrying the same key.
	idempotency bool
}

func NewCheckoutService(orders repository.OrderRepository, carts *cart.Store, idempotency bool) *CheckoutService {
	return &CheckoutService{orders: orders, cart: carts, idempotency: idempotency}
}

// PlaceOrder runs the checkout workflow. The returned bool is false when an
// idempotency key matched a previous attempt and the existing order was
// returned instead of creating a new one.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID, shippingAddress, transactionID, idempotencyKey string) (*models.Order, bool, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	transactionID = strings.TrimSpace(transactionID)

	items := s.cart.Items(userID)
	if len(items) == 0 {
		return nil, false, ErrEmptyCart
	}
	if shippingAddress == "" {
		return nil, false, ErrMissingAddress
	}
	if transactionID == "" {
		return nil, false, ErrMissingTransaction
	}

	if s.idempotency && idempotencyKey != "" {
		if existing, err := s.orders.GetOrderByKey(ctx, idempotencyKey); err == nil {
			return existing, false, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	} else {
		idempotencyKey = ""
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		TotalAmount:     s.cart.TotalAmount(userID),
		Status:          models.OrderWaitingVerification,
		ShippingAddress: shippingAddress,
		IdempotencyKey:  idempotencyKey,
		CreatedAt:       time.Now().UTC(),
	}

	// Step 1: the order row.
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && idempotencyKey != "" {
			// Lost a race against another attempt with the same key.
			if existing, getErr := s.orders.GetOrderByKey(ctx, idempotencyKey); getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	// Step 2: one item row per cart line, snapshotting the current price.
	for _, it := range items {
		item := &models.OrderItem{
			ID:              uuid.NewString(),
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.Price,
		}
		if err := s.orders.CreateOrderItem(ctx, item); err != nil {
			s.compensate(ctx, order.ID)
			return nil, false, err
		}
	}

	// Step 3: the payment record, pending manual verification.
	payment := &models.Payment{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		UserID:        userID,
		Amount:        order.TotalAmount,
		TransactionID: transactionID,
		Status:        models.PaymentPending,
	}
	if err := s.orders.CreatePayment(ctx, payment); err != nil {
		s.compensate(ctx, order.ID)
		return nil, false, err
	}

	// Step 4: all three exist, the cart's data now lives in the order.
	s.cart.ClearCart(userID)
	return order, true, nil
}

// compensate undoes a partial checkout. Failures here leave the orphan in
// place; they are logged and the original error is still surfaced.
func (s *CheckoutService) compensate(ctx context.Context, orderID string) {
	if err := s.orders.DeletePaymentsByOrder(ctx, orderID); err != nil {
		log.Printf("checkout compensation: payments for order %s not removed: %v", orderID, err)
	}
	if err := s.orders.DeleteOrderItemsByOrder(ctx, orderID); err != nil {
		log.Printf("checkout compensation: items for order %s not removed: %v", orderID, err)
	}
	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		log.Printf("checkout compensation: order %s not removed: %v", orderID, err)
	}
}
