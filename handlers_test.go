package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

// MockProductUseCase simula o use case de catálogo
type MockProductUseCase struct {
	mock.Mock
}

func (m *MockProductUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockProductUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockProductUseCase) ListProducts(ctx context.Context, filter ProductFilter, limit, offset int) (*ProductList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductList), args.Error(1)
}

// MockOrderUseCase simula o use case de pedidos
type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) PlaceOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockOrderUseCase) ListOrders(ctx context.Context, userID string, limit, offset int) (*OrderList, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OrderList), args.Error(1)
}

func setupRouter(products ProductUseCaseInterface, orders OrderUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	productHandler := NewProductHandler(products)
	orderHandler := NewOrderHandler(orders, otel.Tracer("test"))

	r.POST("/products", productHandler.CreateProduct)
	r.GET("/products", productHandler.ListProducts)
	r.GET("/products/:id", productHandler.GetProduct)
	r.POST("/orders", orderHandler.CreateOrder)
	r.GET("/orders/:user_id", orderHandler.ListOrders)
	return r
}

func performRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateProductHandler_Created(t *testing.T) {
	products := new(MockProductUseCase)
	router := setupRouter(products, new(MockOrderUseCase))

	created := NewProduct("Smartphone Case", 19.99, "M", 25)
	products.On("CreateProduct", mock.Anything, mock.Anything).Return(created, nil)

	w := performRequest(router, http.MethodPost, "/products",
		`{"name":"Smartphone Case","price":19.99,"size":"M","available_quantity":25}`)

	assert.Equal(t, http.StatusCreated, w.Code)

	var body Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, created.ID, body.ID)
	assert.Equal(t, 19.99, body.Price)
	products.AssertExpectations(t)
}

func TestCreateProductHandler_MissingFields(t *testing.T) {
	products := new(MockProductUseCase)
	router := setupRouter(products, new(MockOrderUseCase))

	w := performRequest(router, http.MethodPost, "/products", `{"name":"Smartphone Case"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestCreateProductHandler_ZeroPriceAccepted(t *testing.T) {
	// Preço zero é válido; o binding não pode confundir zero com ausente
	products := new(MockProductUseCase)
	router := setupRouter(products, new(MockOrderUseCase))

	created := NewProduct("Free Sample", 0, "S", 5)
	products.On("CreateProduct", mock.Anything, mock.MatchedBy(func(req CreateProductRequest) bool {
		return req.Price != nil && *req.Price == 0
	})).Return(created, nil)

	w := performRequest(router, http.MethodPost, "/products",
		`{"name":"Free Sample","price":0,"size":"S","available_quantity":5}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	products.AssertExpectations(t)
}

func TestGetProductHandler_NotFound(t *testing.T) {
	products := new(MockProductUseCase)
	router := setupRouter(products, new(MockOrderUseCase))

	products.On("GetProduct", mock.Anything, "missing").
		Return(nil, fmt.Errorf("product missing: %w", ErrProductNotFound))

	w := performRequest(router, http.MethodGet, "/products/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "missing")
}

func TestListProductsHandler_ParsesQuery(t *testing.T) {
	products := new(MockProductUseCase)
	router := setupRouter(products, new(MockOrderUseCase))

	expectedFilter := ProductFilter{Name: "phone", Size: "M"}
	products.On("ListProducts", mock.Anything, expectedFilter, 20, 40).
		Return(&ProductList{Data: []Product{}, Page: NewPage(20, 40, 0)}, nil)

	w := performRequest(router, http.MethodGet, "/products?name=phone&size=M&limit=20&offset=40", "")

	assert.Equal(t, http.StatusOK, w.Code)
	products.AssertExpectations(t)
}

func TestCreateOrderHandler_Created(t *testing.T) {
	orders := new(MockOrderUseCase)
	router := setupRouter(new(MockProductUseCase), orders)

	order := NewOrder("order-1", "user-1", []OrderItem{
		{ProductID: "product-1", Quantity: 2, Price: 10.50},
	})
	orders.On("PlaceOrder", mock.Anything, CreateOrderRequest{
		UserID: "user-1",
		Items:  []OrderItemRequest{{ProductID: "product-1", Quantity: 2}},
	}).Return(order, nil)

	w := performRequest(router, http.MethodPost, "/orders",
		`{"user_id":"user-1","items":[{"product_id":"product-1","quantity":2}]}`)

	assert.Equal(t, http.StatusCreated, w.Code)

	var body Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "order-1", body.ID)
	assert.Equal(t, 21.0, body.TotalAmount)
	orders.AssertExpectations(t)
}

func TestCreateOrderHandler_InsufficientStock(t *testing.T) {
	orders := new(MockOrderUseCase)
	router := setupRouter(new(MockProductUseCase), orders)

	orders.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("product product-1: available 3, requested 999: %w", ErrInsufficientStock))

	w := performRequest(router, http.MethodPost, "/orders",
		`{"user_id":"user-1","items":[{"product_id":"product-1","quantity":999}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// A resposta identifica o produto e as quantidades envolvidas
	assert.Contains(t, w.Body.String(), "product-1")
	assert.Contains(t, w.Body.String(), "available 3")
}

func TestCreateOrderHandler_ProductNotFound(t *testing.T) {
	orders := new(MockOrderUseCase)
	router := setupRouter(new(MockProductUseCase), orders)

	orders.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("product ghost: %w", ErrProductNotFound))

	w := performRequest(router, http.MethodPost, "/orders",
		`{"user_id":"user-1","items":[{"product_id":"ghost","quantity":1}]}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrderHandler_PersistenceFailure(t *testing.T) {
	orders := new(MockOrderUseCase)
	router := setupRouter(new(MockProductUseCase), orders)

	orders.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(nil, errors.New("failed to persist order: connection refused"))

	w := performRequest(router, http.MethodPost, "/orders",
		`{"user_id":"user-1","items":[{"product_id":"product-1","quantity":1}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateOrderHandler_BindingErrors(t *testing.T) {
	orders := new(MockOrderUseCase)
	router := setupRouter(new(MockProductUseCase), orders)

	tests := []struct {
		name string
		body string
	}{
		{"missing user_id", `{"items":[{"product_id":"product-1","quantity":1}]}`},
		{"empty items", `{"user_id":"user-1","items":[]}`},
		{"zero quantity", `{"user_id":"user-1","items":[{"product_id":"product-1","quantity":0}]}`},
		{"malformed json", `{"user_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/orders", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	orders.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestListOrdersHandler_Envelope(t *testing.T) {
	orders := new(MockOrderUseCase)
	router := setupRouter(new(MockProductUseCase), orders)

	list := &OrderList{
		Data: []Order{*NewOrder("order-1", "user-1", []OrderItem{{ProductID: "product-1", Quantity: 1, Price: 9.99}})},
		Page: NewPage(10, 0, 1),
	}
	orders.On("ListOrders", mock.Anything, "user-1", 10, 0).Return(list, nil)

	w := performRequest(router, http.MethodGet, "/orders/user-1?limit=10&offset=0", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var body OrderList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "order-1", body.Data[0].ID)
	assert.Equal(t, 10, body.Page.Limit)
	assert.False(t, body.Page.HasNext)
	orders.AssertExpectations(t)
}
