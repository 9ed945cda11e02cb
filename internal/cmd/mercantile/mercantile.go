// Package mercantile parses command flags and starts the commerce runtime.
package mercantile

import (
	"context"
	"flag"
	"fmt"
	"log"

	ordersapp "github.com/sableward/mercantile/internal/app/orders"
	paymentsapp "github.com/sableward/mercantile/internal/app/payments"
	"github.com/sableward/mercantile/internal/eventstore"
	"github.com/sableward/mercantile/internal/platform/config"
	"github.com/sableward/mercantile/internal/platform/id"
	"github.com/sableward/mercantile/internal/platform/otel"
	"github.com/sableward/mercantile/internal/projection"
	"github.com/sableward/mercantile/internal/storage"
	"github.com/sableward/mercantile/internal/storage/memory"
	"github.com/sableward/mercantile/internal/storage/sqlite"
)

// Config holds mercantile command configuration.
type Config struct {
	// DBPath selects the SQLite database. Empty runs on the in-memory store.
	DBPath        string `env:"MERCANTILE_DB_PATH"`
	CatalogPath   string `env:"MERCANTILE_CATALOG_PATH"`
	CustomersPath string `env:"MERCANTILE_CUSTOMERS_PATH"`
	Rebuild       bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty for in-memory)")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "JSON product catalog path")
	fs.StringVar(&cfg.CustomersPath, "customers", cfg.CustomersPath, "JSON customer directory path")
	fs.BoolVar(&cfg.Rebuild, "rebuild", false, "rebuild the orders read model from event history and exit")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// journal is the combined persistence surface both backends satisfy.
type journal interface {
	eventstore.Journal
	storage.OrderStore
	storage.OrderLineStore
	ResetReadModel(ctx context.Context) error
}

// Run wires the event store, linkers and projection, then either rebuilds
// the read model or walks a demo checkout.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mercantile")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	var db journal
	if cfg.DBPath != "" {
		sqliteDB, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		defer sqliteDB.Close()
		db = sqliteDB
	} else {
		db = memory.New()
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	customers, err := loadCustomers(cfg.CustomersPath)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}

	store := eventstore.New(db)
	eventstore.RegisterLinkers(store)
	applier := projection.Applier{
		Orders:     db,
		OrderLines: db,
		Products:   catalog,
		Customers:  customers,
	}

	if cfg.Rebuild {
		if err := db.ResetReadModel(ctx); err != nil {
			return fmt.Errorf("reset read model: %w", err)
		}
		if err := projection.Rebuild(ctx, store, applier); err != nil {
			return fmt.Errorf("rebuild read model: %w", err)
		}
		log.Print("read model rebuilt")
		return nil
	}

	projection.Register(store, applier)
	return demoCheckout(ctx, store, db, catalog, customers)
}

// demoCheckout drives one order through basket, submission and payment so a
// fresh database has something to look at.
func demoCheckout(ctx context.Context, store *eventstore.Store, db journal, catalog sampleCatalog, customers sampleDirectory) error {
	orderID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("new order id: %w", err)
	}
	transactionID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("new transaction id: %w", err)
	}

	customerID := customers.anyID()
	orders := ordersapp.NewService(store)
	payments := paymentsapp.NewService(store, approveAllGateway{})

	var total int64
	for productID, product := range catalog {
		if err := orders.AddItem(ctx, orderID, productID); err != nil {
			return fmt.Errorf("add %s: %w", productID, err)
		}
		total += product.Price
	}
	if err := orders.Submit(ctx, orderID, 1, customerID); err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	if err := payments.Authorize(ctx, transactionID, orderID, total); err != nil {
		return fmt.Errorf("authorize payment: %w", err)
	}
	if err := payments.Capture(ctx, transactionID); err != nil {
		return fmt.Errorf("capture payment: %w", err)
	}
	if err := orders.MarkAsPaid(ctx, orderID); err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	order, err := db.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("read order row: %w", err)
	}
	lines, err := db.ListOrderLines(ctx, orderID)
	if err != nil {
		return fmt.Errorf("read order lines: %w", err)
	}

	log.Printf("order %s: number=%d customer=%q state=%s", order.UID, order.Number, order.Customer, order.State)
	for _, line := range lines {
		log.Printf("  %s x%d (%s) = %d cents", line.ProductName, line.Quantity, line.ProductID, line.Value())
	}
	return nil
}
