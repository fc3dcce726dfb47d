package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"autoparts-store/models"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore implements the repositories on database/sql with raw statements.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

var (
	_ UserRepository    = (*MySQLStore)(nil)
	_ CatalogRepository = (*MySQLStore)(nil)
	_ OrderRepository   = (*MySQLStore)(nil)
)

// mapError converts driver errors into the repository taxonomy.
// 1451/1452 are the MySQL foreign-key codes, 1062 is a duplicate key.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1451, 1452:
			return ErrForeignKey
		case 1062:
			return ErrDuplicate
		}
	}
	return err
}

// ----- users -----

func (s *MySQLStore) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_profiles (id, full_name, role, email, password_hash) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.FullName, u.Role, u.Email, u.PasswordHash,
	)
	return mapError(err)
}

func (s *MySQLStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, full_name, role, email, password_hash FROM user_profiles WHERE email = ?", email,
	).Scan(&u.ID, &u.FullName, &u.Role, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (s *MySQLStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx,
		"SELECT id, full_name, role FROM user_profiles WHERE id = ?", id,
	).Scan(&p.ID, &p.FullName, &p.Role)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// ----- catalog -----

func (s *MySQLStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *MySQLStore) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, name) VALUES (?, ?)", c.ID, c.Name)
	return mapError(err)
}

func (s *MySQLStore) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := `SELECT id, name, price, COALESCE(category_id, ''), COALESCE(description, ''),
		COALESCE(image_url, ''), stock_quantity, COALESCE(vendor_id, ''), created_at
		FROM products WHERE 1=1`
	args := []any{}
	if f.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, f.CategoryID)
	}
	if f.NameContains != "" {
		query += " AND LOWER(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(f.NameContains)+"%")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID, &p.Description,
			&p.ImageURL, &p.StockQuantity, &p.VendorID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *MySQLStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, price, COALESCE(category_id, ''), COALESCE(description, ''),
		COALESCE(image_url, ''), stock_quantity, COALESCE(vendor_id, ''), created_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID, &p.Description,
		&p.ImageURL, &p.StockQuantity, &p.VendorID, &p.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (s *MySQLStore) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price, category_id, description, image_url, stock_quantity, vendor_id)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, NULLIF(?, ''))`,
		p.ID, p.Name, p.Price, p.CategoryID, p.Description, p.ImageURL, p.StockQuantity, p.VendorID,
	)
	return mapError(err)
}

func (s *MySQLStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = ?, price = ?, category_id = NULLIF(?, ''), description = ?,
		image_url = ?, stock_quantity = ? WHERE id = ?`,
		p.Name, p.Price, p.CategoryID, p.Description, p.ImageURL, p.StockQuantity, p.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQLStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQLStore) DeleteOrderItemsByProduct(ctx context.Context, productID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM order_items WHERE product_id = ?", productID)
	if err != nil {
		return 0, mapError(err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ----- orders -----

func (s *MySQLStore) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_amount, status, shipping_address, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?)`,
		o.ID, o.UserID, o.TotalAmount, o.Status, o.ShippingAddress, o.IdempotencyKey, o.CreatedAt,
	)
	return mapError(err)
}

func (s *MySQLStore) DeleteOrder(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	return mapError(err)
}

func (s *MySQLStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.scanOrder(s.db.QueryRowContext(ctx,
		orderColumns+" FROM orders WHERE id = ?", id))
}

func (s *MySQLStore) GetOrderByKey(ctx context.Context, key string) (*models.Order, error) {
	return s.scanOrder(s.db.QueryRowContext(ctx,
		orderColumns+" FROM orders WHERE idempotency_key = ?", key))
}

const orderColumns = `SELECT id, user_id, total_amount, status, shipping_address,
	COALESCE(idempotency_key, ''), created_at`

func (s *MySQLStore) scanOrder(row *sql.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress,
		&o.IdempotencyKey, &o.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &o, nil
}

func (s *MySQLStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress,
			&o.IdempotencyKey, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *MySQLStore) ListAllOrders(ctx context.Context) ([]models.AdminOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.user_id, o.total_amount, o.status, o.shipping_address,
		       COALESCE(o.idempotency_key, ''), o.created_at, u.full_name
		FROM orders o
		JOIN user_profiles u ON u.id = o.user_id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.AdminOrder
	for rows.Next() {
		var a models.AdminOrder
		if err := rows.Scan(&a.ID, &a.UserID, &a.TotalAmount, &a.Status, &a.ShippingAddress,
			&a.IdempotencyKey, &a.CreatedAt, &a.CustomerName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *MySQLStore) CreateOrderItem(ctx context.Context, it *models.OrderItem) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase) VALUES (?, ?, ?, ?, ?)",
		it.ID, it.OrderID, it.ProductID, it.Quantity, it.PriceAtPurchase,
	)
	return mapError(err)
}

func (s *MySQLStore) ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, quantity, price_at_purchase FROM order_items WHERE order_id = ?", orderID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *MySQLStore) DeleteOrderItemsByOrder(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", orderID)
	return mapError(err)
}

func (s *MySQLStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, user_id, amount, transaction_id, status, proof_image_url)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''))`,
		p.ID, p.OrderID, p.UserID, p.Amount, p.TransactionID, p.Status, p.ProofImageURL,
	)
	return mapError(err)
}

func (s *MySQLStore) GetPaymentByOrder(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	var proof sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, order_id, user_id, amount, transaction_id, status, proof_image_url FROM payments WHERE order_id = ?",
		orderID,
	).Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.TransactionID, &p.Status, &proof)
	if err != nil {
		return nil, mapError(err)
	}
	p.ProofImageURL = proof.String
	return &p, nil
}

func (s *MySQLStore) DeletePaymentsByOrder(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE order_id = ?", orderID)
	return mapError(err)
}

func (s *MySQLStore) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.OrderStatus, error) {
	var old models.OrderStatus
	err := s.db.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ?", orderID).Scan(&old)
	if err != nil {
		return "", mapError(err)
	}
	_, err = s.db.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", status, orderID)
	if err != nil {
		return "", mapError(err)
	}
	return old, nil
}

func (s *MySQLStore) Review(ctx context.Context, orderID string, ps models.PaymentStatus, os models.OrderStatus) (models.OrderStatus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var old models.OrderStatus
	if err := tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ?", orderID).Scan(&old); err != nil {
		return "", mapError(err)
	}

	// Payment first, order second: the documented write order of the review
	// workflow. No payment row is not an error.
	if _, err := tx.ExecContext(ctx, "UPDATE payments SET status = ? WHERE order_id = ?", ps, orderID); err != nil {
		return "", mapError(err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", os, orderID); err != nil {
		return "", mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return old, nil
}
