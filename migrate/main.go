package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// statements aplica o schema de forma idempotente; rodar duas vezes é seguro
var statements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		size TEXT NOT NULL,
		available_quantity INT NOT NULL CHECK (available_quantity >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders (id),
		position INT NOT NULL,
		product_id UUID NOT NULL REFERENCES products (id),
		quantity INT NOT NULL CHECK (quantity > 0),
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id UUID PRIMARY KEY,
		product_id UUID NOT NULL REFERENCES products (id),
		order_id UUID NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		movement_type TEXT NOT NULL CHECK (movement_type IN ('reserved', 'released')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name ON products (name)`,
	`CREATE INDEX IF NOT EXISTS idx_products_size ON products (size)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_order ON stock_movements (order_id, product_id)`,
}

func main() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DATABASE_USER", "root"),
		getEnv("DATABASE_PASSWORD", "pass"),
		getEnv("DATABASE_HOST", "localhost"),
		getEnv("DATABASE_PORT", "5432"),
		getEnv("DATABASE_NAME", "ecommerce_db"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Wait for database to be ready
	connected := false
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			connected = true
			break
		}
		log.Printf("⏳ Waiting for database... (%d/30)", i+1)
		time.Sleep(1 * time.Second)
	}
	if !connected {
		log.Fatalf("Failed to connect to database after 30 attempts")
	}

	for i, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			log.Fatalf("❌ Migration statement %d failed: %v", i+1, err)
		}
	}

	log.Printf("✅ Applied %d migration statements", len(statements))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
