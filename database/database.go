package database

import (
	"database/sql"
	"fmt"
	"time"

	"autoparts-store/config"

	_ "github.com/go-sql-driver/mysql"
)

var DB *sql.DB

func InitDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return err
	}

	DB = db
	return initSchema(db)
}

func CloseDB() {
	if DB != nil {
		_ = DB.Close()
	}
}

// initSchema creates the storefront tables. The foreign keys on order_items
// are load-bearing: product deletion relies on error 1451 to trigger the
// force-delete path.
func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			id CHAR(36) PRIMARY KEY,
			full_name VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'customer',
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			price DOUBLE NOT NULL,
			category_id CHAR(36),
			description TEXT,
			image_url VARCHAR(1024),
			stock_quantity INT NOT NULL DEFAULT 0,
			vendor_id CHAR(36),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (category_id) REFERENCES categories(id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			total_amount DOUBLE NOT NULL,
			status VARCHAR(32) NOT NULL,
			shipping_address TEXT NOT NULL,
			idempotency_key VARCHAR(128),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_idempotency (idempotency_key),
			FOREIGN KEY (user_id) REFERENCES user_profiles(id)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id CHAR(36) PRIMARY KEY,
			order_id CHAR(36) NOT NULL,
			product_id CHAR(36) NOT NULL,
			quantity INT NOT NULL,
			price_at_purchase DOUBLE NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id),
			FOREIGN KEY (product_id) REFERENCES products(id)
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id CHAR(36) PRIMARY KEY,
			order_id CHAR(36) NOT NULL,
			user_id CHAR(36) NOT NULL,
			amount DOUBLE NOT NULL,
			transaction_id VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			proof_image_url VARCHAR(1024),
			FOREIGN KEY (order_id) REFERENCES orders(id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}
	return nil
}
