package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/myfcd/harvester/config"
	httpDelivery "github.com/myfcd/harvester/internal/delivery/http"
	"github.com/myfcd/harvester/internal/domain"
	"github.com/myfcd/harvester/internal/infrastructure/cache"
	"github.com/myfcd/harvester/internal/infrastructure/export"
	"github.com/myfcd/harvester/internal/infrastructure/store"
	"github.com/myfcd/harvester/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting MyFCD read API v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	var runs domain.RunRepository
	if cfg.Output.Database != "" && cfg.Server.TableFile == "" {
		runStore, err := store.Open(cfg.Output.Database)
		if err != nil {
			log.Fatalf("Failed to open run store: %v", err)
		}
		defer runStore.Close()
		runs = runStore
		log.Printf("Run store: %s", cfg.Output.Database)
	}

	// Initialize usecase layer
	tableService := usecase.NewTableService(
		memoryCache,
		runs,
		usecase.TableServiceConfig{
			CacheTTL: cfg.Cache.TTL,
			Search: usecase.SearchConfig{
				MinConfidence:       cfg.Search.MinConfidence,
				Limit:               cfg.Search.Limit,
				EnableFuzzyMatching: cfg.Search.Fuzzy,
				EnableDebugLogging:  cfg.Server.Environment == "development",
			},
		},
	)

	log.Printf("Search: confidence=%.0f%%, limit=%d, fuzzy=%v",
		cfg.Search.MinConfidence,
		cfg.Search.Limit,
		cfg.Search.Fuzzy)

	if err := loadTable(context.Background(), cfg, tableService); err != nil {
		// The API still starts; table endpoints answer 503 until a run is stored
		log.Printf("WARNING: no food table loaded: %v", err)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(tableService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadTable publishes the table to serve: a JSON export when one is
// configured, otherwise the latest run in the store.
func loadTable(ctx context.Context, cfg *config.Config, tables *usecase.TableService) error {
	if cfg.Server.TableFile == "" {
		return tables.Refresh(ctx)
	}

	f, err := os.Open(cfg.Server.TableFile)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := export.ReadJSON(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.Server.TableFile, err)
	}
	log.Printf("Serving %d foods from %s", len(table), cfg.Server.TableFile)
	return tables.Publish(ctx, table, nil)
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
