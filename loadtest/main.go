package main

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

// productResponse espelha o corpo retornado por POST /products
type productResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	AvailableQuantity int     `json:"available_quantity"`
}

// Dispara pedidos concorrentes contra um único produto e verifica no fim
// que o total vendido nunca passa do estoque inicial
func main() {
	apiURL := getEnv("API_URL", "http://localhost:8080")
	initialStock := getEnvInt("INITIAL_STOCK", 100)
	totalRequests := getEnvInt("TOTAL_REQUESTS", 500)
	concurrency := getEnvInt("CONCURRENCY", 50)

	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(10 * time.Second)

	// Seed: um produto com estoque conhecido
	price := 19.99
	var product productResponse
	resp, err := client.R().
		SetBody(map[string]interface{}{
			"name":               "loadtest-item",
			"price":              price,
			"size":               "M",
			"available_quantity": initialStock,
		}).
		SetResult(&product).
		Post("/products")
	if err != nil {
		log.Fatalf("Failed to seed product: %v", err)
	}
	if resp.StatusCode() != 201 {
		log.Fatalf("Failed to seed product: status %d body %s", resp.StatusCode(), resp.String())
	}
	log.Printf("🚀 Seeded product %s with stock %d", product.ID, initialStock)

	var placed, insufficient, failed atomic.Int64
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(n int) {
			defer wg.Done()
			defer func() { <-sem }()

			resp, err := client.R().
				SetBody(map[string]interface{}{
					"user_id": "loadtest-user-" + strconv.Itoa(n%10),
					"items": []map[string]interface{}{
						{"product_id": product.ID, "quantity": 1},
					},
				}).
				Post("/orders")

			switch {
			case err != nil:
				failed.Add(1)
			case resp.StatusCode() == 201:
				placed.Add(1)
			case resp.StatusCode() == 400:
				insufficient.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	log.Printf("📊 Results: placed=%d insufficient=%d failed=%d in %s",
		placed.Load(), insufficient.Load(), failed.Load(), elapsed)

	// Estoque final observado via API
	resp, err = client.R().Get("/products/" + product.ID)
	if err != nil {
		log.Fatalf("Failed to fetch product: %v", err)
	}
	var final productResponse
	if err := json.Unmarshal(resp.Body(), &final); err != nil {
		log.Fatalf("Failed to decode product: %v", err)
	}

	expected := initialStock - int(placed.Load())
	if expected < 0 || final.AvailableQuantity != expected {
		log.Fatalf("❌ OVERSELL DETECTED: initial=%d placed=%d remaining=%d",
			initialStock, placed.Load(), final.AvailableQuantity)
	}
	log.Printf("✅ No oversell: initial=%d placed=%d remaining=%d",
		initialStock, placed.Load(), final.AvailableQuantity)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
