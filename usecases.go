package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductList é o envelope de resposta da listagem de produtos
type ProductList struct {
	Data []Product `json:"data"`
	Page Page      `json:"page"`
}

// OrderList é o envelope de resposta da listagem de pedidos
type OrderList struct {
	Data []Order `json:"data"`
	Page Page    `json:"page"`
}

// ProductUseCase contém a lógica de negócio do catálogo
type ProductUseCase struct {
	repository ProductRepository
}

// NewProductUseCase cria uma nova instância de ProductUseCase
func NewProductUseCase(repository ProductRepository) *ProductUseCase {
	return &ProductUseCase{
		repository: repository,
	}
}

// CreateProduct valida e insere um novo produto no catálogo
func (uc *ProductUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidProduct)
	}
	if req.Price == nil || *req.Price < 0 {
		return nil, fmt.Errorf("price must be non-negative: %w", ErrInvalidProduct)
	}
	if req.AvailableQuantity == nil || *req.AvailableQuantity < 0 {
		return nil, fmt.Errorf("available_quantity must be non-negative: %w", ErrInvalidProduct)
	}

	product := NewProduct(req.Name, *req.Price, req.Size, *req.AvailableQuantity)
	if err := uc.repository.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	log.Printf("✅ Product created: %s (%s)", product.ID, product.Name)
	return product, nil
}

// GetProduct busca um produto pelo ID
func (uc *ProductUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	return uc.repository.GetProduct(ctx, productID)
}

// ListProducts retorna uma página de produtos
// O total é contado sobre o filtro ativo antes da paginação, então has_next
// reflete o conjunto filtrado inteiro e não apenas a página retornada
func (uc *ProductUseCase) ListProducts(ctx context.Context, filter ProductFilter, limit, offset int) (*ProductList, error) {
	total, err := uc.repository.CountProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := NewPage(limit, offset, total)
	products, err := uc.repository.ListProducts(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	return &ProductList{Data: products, Page: page}, nil
}

// OrderUseCase contém a lógica de negócio dos pedidos
type OrderUseCase struct {
	products       ProductRepository
	orders         OrderRepository
	tracer         trace.Tracer
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
}

// NewOrderUseCase cria uma nova instância de OrderUseCase
func NewOrderUseCase(products ProductRepository, orders OrderRepository, tracer trace.Tracer, meter metric.Meter) *OrderUseCase {
	placed, err := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Pedidos persistidos com sucesso"))
	if err != nil {
		log.Printf("failed to create orders_placed_total counter: %v", err)
	}
	rejected, err := meter.Int64Counter("orders_rejected_total",
		metric.WithDescription("Pedidos abortados e compensados"))
	if err != nil {
		log.Printf("failed to create orders_rejected_total counter: %v", err)
	}

	return &OrderUseCase{
		products:       products,
		orders:         orders,
		tracer:         tracer,
		ordersPlaced:   placed,
		ordersRejected: rejected,
	}
}

// PlaceOrder executa o fluxo completo de um pedido: reserva cada linha na
// ordem enviada pelo cliente, calcula o total com os snapshots de preço e
// persiste o pedido. Qualquer falha no meio do caminho dispara a compensação
// de tudo que já foi reservado — o resultado é sempre tudo-ou-nada
func (uc *OrderUseCase) PlaceOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	// O ID do pedido é gerado antes das reservas para amarrar movimentações
	// e compensações ao mesmo pedido
	orderID := uuid.New().String()
	log.Printf("➡️ [PLACE ORDER] OrderID: %s | UserID: %s | Items: %d", orderID, req.UserID, len(req.Items))

	reserved := make([]OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		price, err := uc.reserveItem(ctx, orderID, item)
		if err != nil {
			log.Printf("❌ [RESERVE] Failed | OrderID=%s ProductID=%s: %v", orderID, item.ProductID, err)
			uc.compensate(ctx, orderID, reserved)
			uc.recordRejected(ctx, "reserve")
			return nil, err
		}
		reserved = append(reserved, OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}

	order := NewOrder(orderID, req.UserID, reserved)
	if err := uc.orders.CreateOrder(ctx, order); err != nil {
		log.Printf("❌ [PERSIST] Failed | OrderID=%s: %v", orderID, err)
		uc.compensate(ctx, orderID, reserved)
		uc.recordRejected(ctx, "persist")
		return nil, fmt.Errorf("failed to persist order %s: %w", orderID, err)
	}

	if uc.ordersPlaced != nil {
		uc.ordersPlaced.Add(ctx, 1)
	}
	log.Printf("✅ [PLACE ORDER] Success | OrderID=%s Total=%.2f", orderID, order.TotalAmount)
	return order, nil
}

// reserveItem reserva uma linha do pedido dentro de um span próprio
func (uc *OrderUseCase) reserveItem(ctx context.Context, orderID string, item OrderItemRequest) (float64, error) {
	ctx, span := uc.tracer.Start(ctx, "reserve_stock")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("product_id", item.ProductID),
		attribute.Int("quantity", item.Quantity),
	)

	price, err := uc.products.ReserveStock(ctx, item.ProductID, orderID, item.Quantity)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	log.Printf("✅ [RESERVE] OrderID=%s ProductID=%s Qty=%d Price=%.2f", orderID, item.ProductID, item.Quantity, price)
	return price, nil
}

// compensate devolve ao estoque todas as reservas já feitas para o pedido,
// na ordem inversa. Roda mesmo se o contexto da requisição já foi cancelado:
// um pedido abortado não pode deixar reserva pendurada
func (uc *OrderUseCase) compensate(ctx context.Context, orderID string, reserved []OrderItem) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := uc.tracer.Start(ctx, "compensate_order")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderID))

	for i := len(reserved) - 1; i >= 0; i-- {
		item := reserved[i]
		if err := uc.products.ReleaseStock(ctx, item.ProductID, orderID, item.Quantity); err != nil {
			span.RecordError(err)
			log.Printf("❌ CRITICAL: compensation failed | OrderID=%s ProductID=%s: %v", orderID, item.ProductID, err)
			continue
		}
		log.Printf("↩️ [COMPENSATE] OrderID=%s ProductID=%s Qty=%d", orderID, item.ProductID, item.Quantity)
	}
}

// recordRejected incrementa o contador de pedidos abortados
func (uc *OrderUseCase) recordRejected(ctx context.Context, stage string) {
	if uc.ordersRejected == nil {
		return
	}
	uc.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// ListOrders retorna uma página do histórico de pedidos do usuário,
// mais recentes primeiro
func (uc *OrderUseCase) ListOrders(ctx context.Context, userID string, limit, offset int) (*OrderList, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", ErrInvalidOrder)
	}

	total, err := uc.orders.CountOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := NewPage(limit, offset, total)
	orders, err := uc.orders.ListOrdersByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	return &OrderList{Data: orders, Page: page}, nil
}

// validateOrderRequest aplica as regras de entrada do pedido
func validateOrderRequest(req CreateOrderRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("user_id is required: %w", ErrInvalidOrder)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("order must contain at least one item: %w", ErrInvalidOrder)
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return fmt.Errorf("product_id is required: %w", ErrInvalidOrder)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity for product %s must be greater than zero: %w", item.ProductID, ErrInvalidOrder)
		}
	}
	return nil
}
