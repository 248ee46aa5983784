package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateProductRequest representa a requisição para criar um produto
// Price e AvailableQuantity são ponteiros para distinguir "ausente" de zero
type CreateProductRequest struct {
	Name              string   `json:"name" binding:"required"`
	Price             *float64 `json:"price" binding:"required,gte=0"`
	Size              string   `json:"size" binding:"required"`
	AvailableQuantity *int     `json:"available_quantity" binding:"required,gte=0"`
}

// OrderItemRequest representa uma linha da requisição de pedido
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest representa a requisição para criar um pedido
type CreateOrderRequest struct {
	UserID string             `json:"user_id" binding:"required"`
	Items  []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ProductUseCaseInterface define a interface do use case de catálogo
type ProductUseCaseInterface interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, limit, offset int) (*ProductList, error)
}

// OrderUseCaseInterface define a interface do use case de pedidos
type OrderUseCaseInterface interface {
	PlaceOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	ListOrders(ctx context.Context, userID string, limit, offset int) (*OrderList, error)
}

// ProductHandler contém os handlers HTTP do catálogo
type ProductHandler struct {
	useCase ProductUseCaseInterface
}

// NewProductHandler cria uma nova instância de ProductHandler
func NewProductHandler(useCase ProductUseCaseInterface) *ProductHandler {
	return &ProductHandler{useCase: useCase}
}

// CreateProduct cria um novo produto no catálogo
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.useCase.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct busca um produto pelo ID
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.useCase.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts lista produtos com filtro e paginação
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := ProductFilter{
		Name: c.Query("name"),
		Size: c.Query("size"),
	}
	limit := queryInt(c, "limit", 0)
	offset := queryInt(c, "offset", 0)

	list, err := h.useCase.ListProducts(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// OrderHandler contém os handlers HTTP de pedidos
type OrderHandler struct {
	useCase OrderUseCaseInterface
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderUseCaseInterface, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{useCase: useCase, tracer: tracer}
}

// CreateOrder executa o fluxo completo de criação de pedido
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "place_order")
	defer span.End()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("items", len(req.Items)),
	)

	order, err := h.useCase.PlaceOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.String("order_id", order.ID))
	c.JSON(http.StatusCreated, order)
}

// ListOrders lista os pedidos de um usuário com paginação
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit := queryInt(c, "limit", 0)
	offset := queryInt(c, "offset", 0)

	list, err := h.useCase.ListOrders(c.Request.Context(), c.Param("user_id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// HandleRoot responde a raiz da API
func HandleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "E-commerce Backend API is running"})
	}
}

// HandleHealth verifica a saúde do serviço e a conexão com o banco
func HandleHealth(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	}
}

// respondError mapeia erros de negócio para status HTTP
// NotFound → 404, estoque insuficiente e validação → 400, resto → 500
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidOrder),
		errors.Is(err, ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// queryInt lê um parâmetro inteiro da query string
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
