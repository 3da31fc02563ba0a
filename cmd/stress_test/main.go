package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/stock-orders/internal/core/domain"
)

const (
	baseURL       = "http://localhost:3000"
	initialStock  = 20
	totalRequests = 50
	customerID    = 1
)

func main() {
	// Seed a fresh item
	item, err := createItem()
	if err != nil {
		log.Fatalf("failed to create item: %v", err)
	}
	log.Printf("seeded item %d with stock %d", item.ID, item.Quantity)

	// Counters
	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			code, err := createOrder(item.ID)
			switch {
			case err != nil:
				log.Printf("request failed: %v", err)
				failCount.Add(1)
			case code == fiber.StatusCreated:
				successCount.Add(1)
			case code == fiber.StatusConflict:
				soldOutCount.Add(1)
			default:
				log.Printf("unexpected status %d", code)
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	soldOut := soldOutCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOut)
	fmt.Printf("Errors:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == initialStock && soldOut == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d sold out\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, soldOut)
	}

	// Verify final stock in MySQL
	final, err := getItem(item.ID)
	if err != nil {
		log.Fatalf("failed to read item: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", final.Quantity)

	if final.Quantity == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", final.Quantity)
	}
}

func createItem() (*domain.Item, error) {
	agent := fiber.Post(baseURL + "/api/item").JSON(domain.NewItem{
		Description: "stress-" + uuid.NewString(),
		Quantity:    initialStock,
		Price:       decimal.NewFromInt(10),
	})
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if code != fiber.StatusCreated {
		return nil, fmt.Errorf("create item: status %d: %s", code, body)
	}

	var item domain.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func createOrder(itemID int64) (int, error) {
	agent := fiber.Post(baseURL + "/api/order").
		Set("Idempotency-Key", uuid.NewString()).
		JSON(domain.NewOrder{CustomerID: customerID, ItemID: itemID, Quantity: 1})
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, errs[0]
	}
	return code, nil
}

func getItem(itemID int64) (*domain.Item, error) {
	code, body, errs := fiber.Get(fmt.Sprintf("%s/api/item/%d", baseURL, itemID)).Bytes()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("get item: status %d: %s", code, body)
	}

	var item domain.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
