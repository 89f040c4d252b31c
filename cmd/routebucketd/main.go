package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/team-azb/route-bucket-backend-sub000/internal/auth"
	"github.com/team-azb/route-bucket-backend-sub000/internal/elevation"
	"github.com/team-azb/route-bucket-backend-sub000/internal/gpxexport"
	"github.com/team-azb/route-bucket-backend-sub000/internal/httpapi"
	"github.com/team-azb/route-bucket-backend-sub000/internal/repository"
	"github.com/team-azb/route-bucket-backend-sub000/internal/routing"
	"github.com/team-azb/route-bucket-backend-sub000/internal/usecase"
)

// Config is the optional config.yaml layer on top of the required
// environment variables; every field here has a workable default.
type Config struct {
	ListenAddr             string   `yaml:"listen_addr"`
	MaxDBConns             int32    `yaml:"max_db_conns"`
	OsrmCacheSize          int      `yaml:"osrm_cache_size"`
	SrtmTilePaths          []string `yaml:"srtm_tile_paths"`
	FirebaseCredentialPath string   `yaml:"firebase_credential_path"`
	ReservedUserIdsPath    string   `yaml:"reserved_user_ids_path"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:             ":8080",
		MaxDBConns:             10,
		OsrmCacheSize:          1000,
		FirebaseCredentialPath: "resources/credentials/firebase-adminsdk.json",
		ReservedUserIdsPath:    "resources/reserved_uids.txt",
	}
}

func loadConfig(path string) Config {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("no config file at %s, using defaults (%v)", path, err)
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("failed to parse %s: %v", path, err)
	}
	return cfg
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the optional config file")
	migrate := flag.Bool("migrate", false, "create the database schema and exit")
	truncateDB := flag.Bool("truncate-db", false, "truncate every table and exit")
	flag.Parse()

	cfg := loadConfig(*configPath)

	databaseURL := requireEnv("DATABASE_URL")
	osrmRoot := requireEnv("OSRM_ROOT")

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, databaseURL, cfg.MaxDBConns)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if *migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			log.Fatalf("failed to migrate schema: %v", err)
		}
		log.Printf("schema migrated successfully")
		return
	}
	if *truncateDB {
		if err := repository.Truncate(ctx, pool); err != nil {
			log.Fatalf("failed to truncate tables: %v", err)
		}
		log.Printf("tables truncated successfully")
		return
	}

	routeRepo := repository.NewRouteRepository(pool)
	permRepo := repository.NewPermissionRepository(pool)

	osrmApi := routing.NewOsrmApi(osrmRoot, cfg.OsrmCacheSize)

	srtmApi, err := elevation.NewSrtmElevationApi(cfg.SrtmTilePaths)
	if err != nil {
		log.Fatalf("failed to load SRTM tiles: %v", err)
	}

	firebaseApi, err := auth.NewFirebaseAuthApi(cfg.FirebaseCredentialPath)
	if err != nil {
		log.Fatalf("failed to load firebase credential: %v", err)
	}

	reservedIDs, err := auth.NewReservedUserIdChecker(cfg.ReservedUserIdsPath)
	if err != nil {
		log.Fatalf("failed to load reserved user id list: %v", err)
	}

	routeUseCase := usecase.NewRouteUseCase(routeRepo, permRepo, osrmApi, srtmApi, reservedIDs)
	handler := httpapi.NewHandler(routeUseCase, gpxexport.NewFormatter())
	router := httpapi.NewRouter(handler, firebaseApi)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func requireEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("%s environment variable is required", key)
	}
	return v
}
