package main

import (
	"testing"
	"time"
)

func TestNewProduct(t *testing.T) {
	// Arrange
	name := "Smartphone Case"
	price := 19.99
	size := "M"
	quantity := 25

	// Act
	product := NewProduct(name, price, size, quantity)

	// Assert
	if product.ID == "" {
		t.Error("Expected generated ID")
	}
	if product.Name != name {
		t.Errorf("Expected Name %s, got %s", name, product.Name)
	}
	if product.Price != price {
		t.Errorf("Expected Price %f, got %f", price, product.Price)
	}
	if product.Size != size {
		t.Errorf("Expected Size %s, got %s", size, product.Size)
	}
	if product.AvailableQuantity != quantity {
		t.Errorf("Expected AvailableQuantity %d, got %d", quantity, product.AvailableQuantity)
	}
	if product.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
	if product.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}
}

func TestNewOrder(t *testing.T) {
	// Arrange
	items := []OrderItem{
		{ProductID: "product-1", Quantity: 2, Price: 10.50},
		{ProductID: "product-2", Quantity: 1, Price: 5.25},
	}

	// Act
	order := NewOrder("order-123", "user-456", items)

	// Assert
	if order.ID != "order-123" {
		t.Errorf("Expected ID order-123, got %s", order.ID)
	}
	if order.UserID != "user-456" {
		t.Errorf("Expected UserID user-456, got %s", order.UserID)
	}
	if len(order.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(order.Items))
	}
	if order.TotalAmount != 26.25 {
		t.Errorf("Expected TotalAmount 26.25, got %f", order.TotalAmount)
	}
	if order.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	now := time.Now().UTC()
	if order.CreatedAt.After(now) || order.CreatedAt.Before(now.Add(-time.Second)) {
		t.Error("CreatedAt is not within expected time range")
	}
}

func TestNewOrder_TotalRoundedToCents(t *testing.T) {
	// Três itens de 0.10 somam 0.30 exato apesar do float
	order := NewOrder("order-1", "user-1", []OrderItem{
		{ProductID: "product-1", Quantity: 3, Price: 0.10},
	})
	if order.TotalAmount != 0.30 {
		t.Errorf("Expected TotalAmount 0.30, got %v", order.TotalAmount)
	}

	order = NewOrder("order-2", "user-1", []OrderItem{
		{ProductID: "product-1", Quantity: 3, Price: 19.99},
	})
	if order.TotalAmount != 59.97 {
		t.Errorf("Expected TotalAmount 59.97, got %v", order.TotalAmount)
	}
}

func TestRoundToCents(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0, 0},
		{10.994, 10.99},
		{10.996, 11.0},
		{0.1 + 0.2, 0.3},
	}

	for _, tt := range tests {
		if got := roundToCents(tt.input); got != tt.expected {
			t.Errorf("roundToCents(%v): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}
