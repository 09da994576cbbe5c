package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	// Endpoint snap tolerance for road fragment merging, meters.
	MergeToleranceMeters float64

	// Result cap for proximity toll search.
	NearbyLimit int
}

// Load reads configuration from the environment with sane defaults
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/tolls/tolls.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	return &Config{
		Port:                 port,
		DBPath:               dbPath,
		JWTSecret:            jwtSecret,
		MergeToleranceMeters: envFloat("MERGE_TOLERANCE_METERS", 30),
		NearbyLimit:          envInt("NEARBY_LIMIT", 5),
	}
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
