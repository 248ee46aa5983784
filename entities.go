package main

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrProductNotFound indica que o produto referenciado não existe no catálogo
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock indica que o estoque disponível não cobre a quantidade pedida
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidOrder indica que o pedido não passou na validação de entrada
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInvalidProduct indica que o produto não passou na validação de entrada
	ErrInvalidProduct = errors.New("invalid product")
)

// Product representa um produto do catálogo
type Product struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Price             float64   `json:"price" db:"price"`
	Size              string    `json:"size" db:"size"`
	AvailableQuantity int       `json:"available_quantity" db:"available_quantity"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product com ID gerado
func NewProduct(name string, price float64, size string, availableQuantity int) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:                uuid.New().String(),
		Name:              name,
		Price:             price,
		Size:              size,
		AvailableQuantity: availableQuantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// OrderItem representa uma linha do pedido com snapshot de preço
// O preço é capturado no momento da reserva e nunca acompanha
// alterações posteriores do catálogo
type OrderItem struct {
	ProductID string  `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"`
}

// Order representa um pedido persistido
type Order struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount" db:"total_amount"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// NewOrder cria uma nova instância de Order calculando o total
// a partir dos snapshots de preço das linhas
func NewOrder(id, userID string, items []OrderItem) *Order {
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.Price
	}

	return &Order{
		ID:          id,
		UserID:      userID,
		Items:       items,
		TotalAmount: roundToCents(total),
		CreatedAt:   time.Now().UTC(),
	}
}

// roundToCents arredonda valores monetários para duas casas decimais
func roundToCents(value float64) float64 {
	return math.Round(value*100) / 100
}

// MovementType representa os tipos de movimentação de estoque
const (
	MovementTypeReserved = "reserved"
	MovementTypeReleased = "released"
)

// StockMovement representa uma movimentação de estoque ligada a um pedido
// Serve como trilha de auditoria e como chave de idempotência das compensações
type StockMovement struct {
	ID           string    `json:"id" db:"id"`
	ProductID    string    `json:"product_id" db:"product_id"`
	OrderID      string    `json:"order_id" db:"order_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	MovementType string    `json:"movement_type" db:"movement_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
