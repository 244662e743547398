package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/achievement-hub/api/api"
	"github.com/achievement-hub/api/catalog"
	"github.com/achievement-hub/api/datastore"
	"github.com/achievement-hub/api/friends"
	"github.com/achievement-hub/api/migrations"
	"github.com/achievement-hub/api/pkg/logger"
	"github.com/achievement-hub/api/progress"
	"github.com/achievement-hub/api/syncfeed"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger.Init()
	defer logger.Sync()

	// Get configuration from environment
	config := api.Config{
		HTTPPort:          getEnv("HTTP_PORT", ":8080"),
		DatabaseType:      getEnv("DB_TYPE", "postgres"),
		DatabaseUser:      getEnv("DB_USER", "postgres"),
		DatabasePassword:  getEnv("DB_PASSWORD", ""),
		DatabaseHost:      getEnv("DB_HOST", "localhost"),
		DatabaseName:      getEnv("DB_NAME", "achievementhub"),
		SSLMode:           getEnv("SSL_MODE", "disable"),
		JwtSecret:         getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JwtAccessDuration: getEnvInt("JWT_ACCESS_DURATION", 900), // 15 minutes
		JwtDomain:         getEnv("JWT_DOMAIN", ""),
		AllowedOrigins:    getEnvSlice("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		CatalogDir:        getEnv("CATALOG_DIR", "data"),
		DevMode:           getEnvBool("DEV_MODE", true),
	}

	// Create database connection
	connStr := datastore.BuildDBConnStr(
		config.DatabasePassword,
		config.DatabaseUser,
		config.DatabaseHost,
		config.DatabaseName,
		config.SSLMode,
	)

	dbConn, dbErr := datastore.NewDB(config.DatabaseType, connStr)
	if dbErr != nil {
		logger.Fatal("failed to connect to database", "error", dbErr)
	}
	defer dbConn.Close()

	// Run database migrations
	if err := migrations.RunMigrations(dbConn); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	// Create repositories
	userRepo, userRepoErr := datastore.NewUserDatabase(dbConn)
	if userRepoErr != nil {
		logger.Fatal("failed to create user repository", "error", userRepoErr)
	}

	profileRepo, profileRepoErr := datastore.NewProfileDatabase(dbConn)
	if profileRepoErr != nil {
		logger.Fatal("failed to create profile repository", "error", profileRepoErr)
	}

	requestRepo, requestRepoErr := datastore.NewFriendRequestDatabase(dbConn)
	if requestRepoErr != nil {
		logger.Fatal("failed to create friend request repository", "error", requestRepoErr)
	}

	edgeRepo, edgeRepoErr := datastore.NewFriendshipEdgeDatabase(dbConn)
	if edgeRepoErr != nil {
		logger.Fatal("failed to create friendship edge repository", "error", edgeRepoErr)
	}

	progressRepo, progressRepoErr := datastore.NewProgressDatabase(dbConn)
	if progressRepoErr != nil {
		logger.Fatal("failed to create progress repository", "error", progressRepoErr)
	}

	// Load the achievement catalog
	cat, catErr := catalog.Load(config.CatalogDir)
	if catErr != nil {
		logger.Fatal("failed to load achievement catalog", "error", catErr)
	}
	logger.Info("achievement catalog loaded", "achievements", len(cat.Achievements()), "areas", len(cat.Areas()))

	// Realtime change feed. The server still works without it, sessions just
	// won't see live updates, so a listener failure is not fatal.
	var hub *syncfeed.Hub
	feed, feedErr := syncfeed.NewListenerFeed(connStr)
	if feedErr != nil {
		logger.Warn("realtime feed unavailable, continuing without live sync", "error", feedErr)
	} else {
		hub = syncfeed.NewHub(feed)
	}

	// Create application
	app := &api.Application{
		Config:       config,
		UserRepo:     userRepo,
		ProfileRepo:  profileRepo,
		RequestRepo:  requestRepo,
		EdgeRepo:     edgeRepo,
		ProgressRepo: progressRepo,
		Friends:      friends.NewService(profileRepo, requestRepo, edgeRepo, progressRepo),
		Progress:     progress.NewSyncer(progressRepo, cat),
		Saver:        progress.NewSaver(progressRepo, progress.DefaultQuietPeriod),
		Catalog:      cat,
		SyncHub:      hub,
	}

	// Create and start server
	mux := http.NewServeMux()

	fmt.Println("Achievement Hub API Starting...")
	if err := app.Serve(mux); err != nil {
		logger.Fatal("server error", "error", err)
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

func getEnvSlice(key, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return strings.Split(value, ",")
}
