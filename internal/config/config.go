package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Settlement SettlementConfig
	Resolution ResolutionConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret       string
	DisplayDecimals int // decimals of the settlement currency for display conversion
}

// SettlementConfig holds settlement-chain settings
type SettlementConfig struct {
	ChainID        uint64
	RPCEndpoints   []string // ordered; first is primary, rest are fallbacks
	OperatorKey    string   // hex private key for the server-side write connection
	FactoryAddress string   // market factory that deploys escrow contracts
}

// ResolutionConfig holds resolution-chain settings
type ResolutionConfig struct {
	ChainID     uint64
	RPCEndpoint string
	OperatorKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	settlementChainID, err := strconv.ParseUint(getEnv("SETTLEMENT_CHAIN_ID", "11155111"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SETTLEMENT_CHAIN_ID: %w", err)
	}
	resolutionChainID, err := strconv.ParseUint(getEnv("RESOLUTION_CHAIN_ID", "4221"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RESOLUTION_CHAIN_ID: %w", err)
	}
	displayDecimals, err := strconv.Atoi(getEnv("DISPLAY_DECIMALS", "18"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_DECIMALS: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "genlayer_market"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			DisplayDecimals: displayDecimals,
		},
		Settlement: SettlementConfig{
			ChainID:        settlementChainID,
			RPCEndpoints:   splitList(getEnv("SETTLEMENT_RPC_URLS", "")),
			OperatorKey:    getEnv("SETTLEMENT_OPERATOR_KEY", ""),
			FactoryAddress: getEnv("MARKET_FACTORY_ADDRESS", ""),
		},
		Resolution: ResolutionConfig{
			ChainID:     resolutionChainID,
			RPCEndpoint: getEnv("RESOLUTION_RPC_URL", ""),
			OperatorKey: getEnv("RESOLUTION_OPERATOR_KEY", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if len(config.Settlement.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("SETTLEMENT_RPC_URLS is required (comma-separated, primary first)")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated env value, dropping empty entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
