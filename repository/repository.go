package repository

import (
	"context"
	"errors"

	"autoparts-store/models"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForeignKey is returned when a delete is blocked by a referencing row,
	// the machine-readable constraint error the force-delete path branches on.
	ErrForeignKey = errors.New("foreign key constraint violation")
	// ErrDuplicate is returned on unique-key conflicts (email, idempotency key).
	ErrDuplicate = errors.New("duplicate entry")
)

// User couples a profile with its sign-in credentials.
type User struct {
	models.Profile
	Email        string
	PasswordHash string
}

// ProductFilter narrows ListProducts; zero values mean "no filter".
type ProductFilter struct {
	CategoryID   string
	NameContains string
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	// DeleteProduct fails with ErrForeignKey while order_items reference the
	// product.
	DeleteProduct(ctx context.Context, id string) error
	DeleteOrderItemsByProduct(ctx context.Context, productID string) (int, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	DeleteOrder(ctx context.Context, id string) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderByKey(ctx context.Context, idempotencyKey string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAllOrders(ctx context.Context) ([]models.AdminOrder, error)

	CreateOrderItem(ctx context.Context, it *models.OrderItem) error
	ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID string) error

	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPaymentByOrder(ctx context.Context, orderID string) (*models.Payment, error)
	DeletePaymentsByOrder(ctx context.Context, orderID string) error

	// SetOrderStatus updates the status and returns the previous one so the
	// caller can publish a change event.
	SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.OrderStatus, error)

	// Review applies the verify/reject pair: payment status first (skipped
	// when no payment row exists), then order status. SQL implementations run
	// both statements in one transaction.
	Review(ctx context.Context, orderID string, ps models.PaymentStatus, os models.OrderStatus) (old models.OrderStatus, err error)
}
