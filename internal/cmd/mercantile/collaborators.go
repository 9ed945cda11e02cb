package mercantile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/sableward/mercantile/internal/projection"
	"github.com/sableward/mercantile/internal/storage"
)

// approveAllGateway authorizes every transaction. The demo checkout has no
// real payment provider behind it.
type approveAllGateway struct{}

func (approveAllGateway) AuthorizeTransaction(ctx context.Context, transactionID string, amountCents int64) error {
	log.Printf("gateway: authorized %s for %d cents", transactionID, amountCents)
	return nil
}

// sampleCatalog resolves products from a static map loaded at startup.
type sampleCatalog map[string]projection.Product

func (c sampleCatalog) ProductByID(ctx context.Context, productID string) (projection.Product, error) {
	product, ok := c[productID]
	if !ok {
		return projection.Product{}, fmt.Errorf("product %s: %w", productID, storage.ErrNotFound)
	}
	return product, nil
}

// sampleDirectory resolves customers from a static map loaded at startup.
type sampleDirectory map[string]projection.Customer

func (d sampleDirectory) CustomerByID(ctx context.Context, customerID string) (projection.Customer, error) {
	customer, ok := d[customerID]
	if !ok {
		return projection.Customer{}, fmt.Errorf("customer %s: %w", customerID, storage.ErrNotFound)
	}
	return customer, nil
}

// anyID returns the lexically first customer id, for the demo checkout.
func (d sampleDirectory) anyID() string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// loadCatalog reads a JSON product catalog, falling back to sample products
// when no path is configured.
func loadCatalog(path string) (sampleCatalog, error) {
	if path == "" {
		return sampleCatalog{
			"prod-async-remote": {Name: "Async Remote", Price: 3900},
			"prod-fearless":     {Name: "Fearless Refactoring", Price: 4900},
		}, nil
	}
	catalog := sampleCatalog{}
	if err := loadJSON(path, &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// loadCustomers reads a JSON customer directory, falling back to sample
// customers when no path is configured.
func loadCustomers(path string) (sampleDirectory, error) {
	if path == "" {
		return sampleDirectory{
			"cust-ann": {Name: "Ann"},
			"cust-bob": {Name: "Bob"},
		}, nil
	}
	customers := sampleDirectory{}
	if err := loadJSON(path, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func loadJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
