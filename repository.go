package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductFilter define os filtros opcionais da listagem de produtos
// Filtros ausentes (string vazia) não impõem restrição; múltiplos filtros
// compõem com AND
type ProductFilter struct {
	// Name filtra por substring case-insensitive
	Name string
	// Size filtra por igualdade exata
	Size string
}

// ProductRepository define a interface para operações de catálogo e estoque
type ProductRepository interface {
	// CreateProduct insere um novo produto no catálogo
	CreateProduct(ctx context.Context, product *Product) error

	// GetProduct busca um produto pelo ID ou retorna ErrProductNotFound
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// ListProducts retorna uma página de produtos conforme filtro e paginação
	ListProducts(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, error)

	// CountProducts retorna o total de produtos que casam com o filtro
	CountProducts(ctx context.Context, filter ProductFilter) (int, error)

	// ReserveStock decrementa o estoque de forma atômica e retorna o snapshot
	// de preço; retorna ErrInsufficientStock ou ErrProductNotFound sem alterar nada
	ReserveStock(ctx context.Context, productID, orderID string, quantity int) (float64, error)

	// ReleaseStock devolve ao estoque uma reserva feita para o pedido (compensação)
	ReleaseStock(ctx context.Context, productID, orderID string, quantity int) error
}

// OrderRepository define a interface para operações de histórico de pedidos
type OrderRepository interface {
	// CreateOrder persiste o pedido e suas linhas em uma única transação
	CreateOrder(ctx context.Context, order *Order) error

	// ListOrdersByUser retorna uma página de pedidos do usuário, mais recentes primeiro
	ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)

	// CountOrdersByUser retorna o total de pedidos do usuário
	CountOrdersByUser(ctx context.Context, userID string) (int, error)
}

// PostgresProductRepository implementa ProductRepository usando PostgreSQL
type PostgresProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository cria uma nova instância de PostgresProductRepository
func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &PostgresProductRepository{
		db: db,
	}
}

// CreateProduct insere um novo produto no catálogo
func (r *PostgresProductRepository) CreateProduct(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, price, size, available_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, product.ID, product.Name, product.Price, product.Size, product.AvailableQuantity,
		product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetProduct busca um produto pelo ID
func (r *PostgresProductRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var product Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price, size, available_quantity, created_at, updated_at
		FROM products WHERE id = $1
	`, productID).Scan(&product.ID, &product.Name, &product.Price, &product.Size,
		&product.AvailableQuantity, &product.CreatedAt, &product.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// buildProductListConditions monta o WHERE da listagem a partir do filtro.
// Retorna os fragmentos de condição e os argumentos posicionais correspondentes
func buildProductListConditions(filter ProductFilter) ([]string, []interface{}) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)

	if filter.Name != "" {
		args = append(args, "%"+escapeLikePattern(filter.Name)+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Size != "" {
		args = append(args, filter.Size)
		conditions = append(conditions, fmt.Sprintf("size = $%d", len(args)))
	}

	return conditions, args
}

// escapeLikePattern escapa os metacaracteres de LIKE para busca literal
func escapeLikePattern(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `%`, `\%`)
	value = strings.ReplaceAll(value, `_`, `\_`)
	return value
}

// ListProducts retorna uma página de produtos em ordem de inserção
func (r *PostgresProductRepository) ListProducts(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, error) {
	query := `
		SELECT id, name, price, size, available_quantity, created_at, updated_at
		FROM products
	`
	conditions, args := buildProductListConditions(filter)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, limit)
	for rows.Next() {
		var product Product
		err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Size,
			&product.AvailableQuantity, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// CountProducts retorna o total de produtos que casam com o filtro
func (r *PostgresProductRepository) CountProducts(ctx context.Context, filter ProductFilter) (int, error) {
	query := `SELECT COUNT(*) FROM products`
	conditions, args := buildProductListConditions(filter)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// ReserveStock decrementa o estoque com um único UPDATE condicional.
// O check-and-decrement acontece dentro do próprio comando, então duas
// reservas concorrentes nunca vendem além do disponível
func (r *PostgresProductRepository) ReserveStock(ctx context.Context, productID, orderID string, quantity int) (float64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin reserve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var price float64
	err = tx.QueryRow(ctx, `
		UPDATE products
		SET available_quantity = available_quantity - $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND available_quantity >= $2
		RETURNING price
	`, productID, quantity).Scan(&price)

	if errors.Is(err, pgx.ErrNoRows) {
		// Zero linhas afetadas: ou o produto não existe, ou não há estoque.
		var available int
		probeErr := tx.QueryRow(ctx, `
			SELECT available_quantity FROM products WHERE id = $1
		`, productID).Scan(&available)
		if errors.Is(probeErr, pgx.ErrNoRows) {
			return 0, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
		}
		if probeErr != nil {
			return 0, fmt.Errorf("failed to probe product %s: %w", productID, probeErr)
		}
		return 0, fmt.Errorf("product %s: available %d, requested %d: %w",
			productID, available, quantity, ErrInsufficientStock)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reserve stock for product %s: %w", productID, err)
	}

	if err := insertStockMovement(ctx, tx, productID, orderID, quantity, MovementTypeReserved); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit reserve: %w", err)
	}
	return price, nil
}

// ReleaseStock devolve ao estoque o saldo ainda reservado para o par
// (pedido, produto). A compensação é idempotente: liberar duas vezes a mesma
// reserva não infla o estoque
func (r *PostgresProductRepository) ReleaseStock(ctx context.Context, productID, orderID string, quantity int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin release tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Trava a linha do produto: duas liberações concorrentes do mesmo par
	// (pedido, produto) serializam aqui e a segunda enxerga o saldo já zerado
	var lockedID string
	err = tx.QueryRow(ctx, `
		SELECT id FROM products WHERE id = $1 FOR UPDATE
	`, productID).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock product %s: %w", productID, err)
	}

	// Saldo pendente segundo o ledger de movimentações.
	var outstanding int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN movement_type = $3 THEN quantity ELSE -quantity END), 0)
		FROM stock_movements
		WHERE order_id = $1 AND product_id = $2
	`, orderID, productID, MovementTypeReserved).Scan(&outstanding)
	if err != nil {
		return fmt.Errorf("failed to check outstanding reservation: %w", err)
	}

	if outstanding <= 0 {
		log.Printf("ℹ️  [IDEMPOTENCY] Reserva já compensada | OrderID=%s ProductID=%s", orderID, productID)
		return nil
	}
	if quantity > outstanding {
		quantity = outstanding
	}

	result, err := tx.Exec(ctx, `
		UPDATE products
		SET available_quantity = available_quantity + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to release stock for product %s: %w", productID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}

	if err := insertStockMovement(ctx, tx, productID, orderID, quantity, MovementTypeReleased); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	return nil
}

// insertStockMovement registra a movimentação dentro da transação corrente
func insertStockMovement(ctx context.Context, tx pgx.Tx, productID, orderID string, quantity int, movementType string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, order_id, quantity, movement_type, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New().String(), productID, orderID, quantity, movementType)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}

// PostgresOrderRepository implementa OrderRepository usando PostgreSQL
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository cria uma nova instância de PostgresOrderRepository
func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PostgresOrderRepository{
		db: db,
	}
}

// CreateOrder persiste o pedido e suas linhas em uma única transação
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, order *Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, created_at)
		VALUES ($1, $2, $3, $4)
	`, order.ID, order.UserID, order.TotalAmount, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for position, item := range order.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New().String(), order.ID, position, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// ListOrdersByUser retorna uma página de pedidos do usuário
// Ordenação fixa: mais recentes primeiro (created_at DESC, id como desempate)
func (r *PostgresOrderRepository) ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, total_amount, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	orderIDs := make([]string, 0, limit)
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Items = make([]OrderItem, 0)
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.loadOrderItems(ctx, orders, orderIDs); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadOrderItems carrega as linhas de todos os pedidos da página em uma query
func (r *PostgresOrderRepository) loadOrderItems(ctx context.Context, orders []Order, orderIDs []string) error {
	rows, err := r.db.Query(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY position ASC
	`, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string]int, len(orders))
	for i := range orders {
		byOrder[orders[i].ID] = i
	}

	for rows.Next() {
		var orderID string
		var item OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if i, ok := byOrder[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate order items: %w", err)
	}
	return nil
}

// CountOrdersByUser retorna o total de pedidos do usuário
func (r *PostgresOrderRepository) CountOrdersByUser(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders WHERE user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}
