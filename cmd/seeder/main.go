// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stocktrack-be/internal/adapters/db"
	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/services"
	"github.com/ammerola/stocktrack-be/internal/pkg/config"
	"github.com/ammerola/stocktrack-be/internal/pkg/logger"
)

type seedItem struct {
	SKU          string
	Name         string
	Manufacturer string
	Category     string
	UnitCost     string
	MinimumStock int
}

var (
	categories = []string{"Electrical", "Fasteners", "Networking", "Safety", "Consumables"}

	locations = []domain.Location{
		{Building: "HQ", Room: "Stockroom", Unit: "Shelf A1"},
		{Building: "HQ", Room: "Stockroom", Unit: "Shelf A2"},
		{Building: "HQ", Room: "Lab 2", Unit: "Cabinet 1"},
		{Building: "Warehouse", Room: "Bay 3", Unit: "Rack 12"},
		{Building: "Warehouse", Room: "Bay 3", Unit: "Rack 13"},
		{Unit: "Van 7"},
	}

	users = []domain.User{
		{Name: "Stock Clerk", Email: "clerk@example.com"},
		{Name: "Lab Technician", Email: "lab@example.com"},
		{Name: "Field Engineer", Email: "field@example.com"},
	}

	catalog = []seedItem{
		{"EL-1001", "Cat6 patch cable 2m", "Belden", "Networking", "4.20", 40},
		{"EL-1002", "Cat6 patch cable 5m", "Belden", "Networking", "6.75", 20},
		{"EL-1010", "24-port patch panel", "Panduit", "Networking", "89.00", 2},
		{"EL-2001", "14 AWG THHN wire, 100ft", "Southwire", "Electrical", "32.50", 5},
		{"EL-2002", "Single-pole breaker 20A", "Square D", "Electrical", "11.95", 10},
		{"EL-2003", "Duplex receptacle 15A", "Leviton", "Electrical", "2.40", 25},
		{"FS-3001", "M6x20 hex bolt, box of 100", "Fastenal", "Fasteners", "9.80", 6},
		{"FS-3002", "M6 nylon lock nut, box of 100", "Fastenal", "Fasteners", "7.10", 6},
		{"FS-3003", "#8 wood screw 1.5in, box of 200", "Hillman", "Fasteners", "8.35", 4},
		{"SF-4001", "Nitrile gloves, box of 100", "Ansell", "Safety", "14.99", 10},
		{"SF-4002", "Safety glasses, clear", "3M", "Safety", "5.25", 12},
		{"SF-4003", "Hearing protection earmuffs", "3M", "Safety", "21.40", 3},
		{"CN-5001", "Electrical tape, black", "3M", "Consumables", "3.15", 30},
		{"CN-5002", "Cable ties 200mm, bag of 100", "Thomas & Betts", "Consumables", "6.60", 15},
		{"CN-5003", "Heat shrink assortment", "Wirefy", "Consumables", "18.90", 2},
	}
)

func main() {
	var (
		withdrawals = flag.Int("withdrawals", 40, "number of random withdrawals and transfers to run after receiving stock")
		seed        = flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
		migrate     = flag.Bool("migrate", true, "apply migrations before seeding")
	)
	flag.Parse()

	slogger := logger.SetupLogger("info", "text")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsProduction() {
		slogger.Error("refusing to seed a production database")
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, cfg, *migrate, *withdrawals, *seed, slogger); err != nil {
		slogger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, migrate bool, withdrawals int, seed uint64, log *slog.Logger) error {
	dbConfig := &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 4,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}

	if migrate {
		if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: dbConfig.URL(),
			SourcePath:  cfg.Database.MigrationPath,
		}, log, 3); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	database, err := db.NewDatabase(ctx, dbConfig, log)
	if err != nil {
		return err
	}
	defer database.Close()

	pool := database.Pool()
	items := db.NewItemRepository(pool, log)
	locs := db.NewLocationRepository(pool, log)
	userRepo := db.NewUserRepository(pool, log)

	catalogSvc := services.NewCatalogService(services.CatalogDeps{
		Items:      items,
		Locations:  locs,
		Categories: db.NewCategoryRepository(pool, log),
		Users:      userRepo,
		Entries:    db.NewStockEntryRepository(pool, log),
	}, log)

	policy, err := domain.ParseOverdrawPolicy(cfg.Ledger.OverdrawPolicy)
	if err != nil {
		return err
	}
	processor := services.NewTransactionProcessor(services.ProcessorDeps{
		UnitOfWork:   db.NewUnitOfWork(database),
		Items:        items,
		Locations:    locs,
		Users:        userRepo,
		Transactions: db.NewTransactionRepository(pool, log),
	}, policy, log)

	s := &seeder{catalog: catalogSvc, processor: processor, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), log: log}
	return s.seed(ctx, withdrawals)
}

type seeder struct {
	catalog   *services.CatalogService
	processor *services.TransactionProcessor
	rng       *rand.Rand
	log       *slog.Logger

	categoryIDs map[string]uuid.UUID
	locationIDs []uuid.UUID
	userIDs     []uuid.UUID
	itemIDs     []uuid.UUID
}

func (s *seeder) seed(ctx context.Context, withdrawals int) error {
	start := time.Now()

	existing, err := s.catalog.ListItems(ctx, domain.ItemFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to check existing items: %w", err)
	}
	if existing.TotalCount > 0 {
		s.log.Info("database already has items, nothing to seed", slog.Int64("items", existing.TotalCount))
		return nil
	}

	s.categoryIDs = make(map[string]uuid.UUID, len(categories))
	for _, name := range categories {
		cat := &domain.Category{Name: name}
		if err := s.catalog.CreateCategory(ctx, cat); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		s.categoryIDs[name] = cat.ID
	}

	for _, l := range locations {
		loc := l
		if err := s.catalog.CreateLocation(ctx, &loc); err != nil {
			return fmt.Errorf("location %q: %w", loc.DisplayName(), err)
		}
		s.locationIDs = append(s.locationIDs, loc.ID)
	}

	for _, u := range users {
		user := u
		if err := s.catalog.CreateUser(ctx, &user); err != nil {
			return fmt.Errorf("user %q: %w", user.Name, err)
		}
		s.userIDs = append(s.userIDs, user.ID)
	}

	for _, si := range catalog {
		categoryID := s.categoryIDs[si.Category]
		item := &domain.Item{
			SKU:          si.SKU,
			Name:         si.Name,
			Manufacturer: si.Manufacturer,
			CategoryID:   &categoryID,
			UnitCost:     decimal.RequireFromString(si.UnitCost),
			MinimumStock: si.MinimumStock,
		}
		if err := s.catalog.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("item %q: %w", si.SKU, err)
		}
		s.itemIDs = append(s.itemIDs, item.ID)

		// Opening stock: between one and three times the minimum at one location
		qty := si.MinimumStock * (1 + s.rng.IntN(3))
		if _, err := s.process(ctx, &domain.Transaction{
			Type:         domain.TransactionReceive,
			ItemID:       item.ID,
			Quantity:     qty,
			ToLocationID: s.pickLocation(),
			PerformedBy:  s.userIDs[0],
			Notes:        "opening stock",
		}); err != nil {
			return err
		}
	}

	var rejected int
	for i := 0; i < withdrawals && len(s.itemIDs) > 0; i++ {
		itemID := s.itemIDs[s.rng.IntN(len(s.itemIDs))]
		tx := &domain.Transaction{
			ItemID:      itemID,
			Quantity:    1 + s.rng.IntN(8),
			PerformedBy: s.userIDs[s.rng.IntN(len(s.userIDs))],
		}

		from := s.pickLocation()
		switch s.rng.IntN(4) {
		case 0:
			tx.Type = domain.TransactionTransfer
			tx.FromLocationID = from
			to := s.pickLocation()
			for *to == *from {
				to = s.pickLocation()
			}
			tx.ToLocationID = to
		case 1:
			tx.Type = domain.TransactionDispose
			tx.FromLocationID = from
			tx.Notes = "damaged"
		default:
			tx.Type = domain.TransactionWithdraw
			tx.FromLocationID = from
		}

		ok, err := s.process(ctx, tx)
		if err != nil {
			return err
		}
		if !ok {
			rejected++
		}
	}

	s.log.Info("seeding complete",
		slog.Int("categories", len(s.categoryIDs)),
		slog.Int("locations", len(s.locationIDs)),
		slog.Int("users", len(s.userIDs)),
		slog.Int("items", len(s.itemIDs)),
		slog.Int("movements_attempted", withdrawals),
		slog.Int("movements_rejected", rejected),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// process runs tx and reports false when the ledger refused it for lack of stock
func (s *seeder) process(ctx context.Context, tx *domain.Transaction) (bool, error) {
	result, err := s.processor.Process(ctx, tx)
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.log.Debug("transaction rejected", slog.String("error", err.Error()))
			return false, nil
		}
		return false, fmt.Errorf("%s of item %s: %w", tx.Type, tx.ItemID, err)
	}

	if result.ItemStatus != domain.ItemStatusInStock {
		s.log.Info("item below minimum",
			slog.String("item_id", tx.ItemID.String()),
			slog.String("status", string(result.ItemStatus)))
	}
	return true, nil
}

func (s *seeder) pickLocation() *uuid.UUID {
	id := s.locationIDs[s.rng.IntN(len(s.locationIDs))]
	return &id
}
