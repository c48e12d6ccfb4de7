// config.go - Handles configuration for the project

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the backend.
type Config struct {
	DBPath    string // Path to the SQLite database file
	Port      string // HTTP listen address (e.g. ":5000")
	JWTSecret string // Secret key for JWT authentication

	RPCURL          string // JSON-RPC endpoint of the ledger node (e.g. Ganache)
	ContractAddress string // Deployed Voting contract address
	ContractABIPath string // Path to the contract build artifact (truffle JSON)
	TxAccount       string // Optional override for the transaction-sending account

	ReceiptTimeout int // Seconds to wait for transaction finality

	CreateAdmin   bool   // Whether to bootstrap the admin identity at startup
	AdminUserID   string // Admin login id for the bootstrap
	AdminPassword string // Admin password for the bootstrap
}

// Load reads config from a .env file (if present) and environment variables.
func Load() *Config {
	_ = godotenv.Load(".env") // Best-effort; explicit env vars win either way

	return &Config{
		DBPath:          getEnv("DB_PATH", "voting.db"),
		Port:            getEnv("PORT", ":5000"),
		JWTSecret:       getEnv("JWT_SECRET", "supersecret"),
		RPCURL:          getEnv("LEDGER_RPC_URL", "http://127.0.0.1:7545"),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		ContractABIPath: getEnv("CONTRACT_ABI_PATH", "build/contracts/Voting.json"),
		TxAccount:       getEnv("TX_ACCOUNT", ""),
		ReceiptTimeout:  getEnvInt("RECEIPT_TIMEOUT_SECONDS", 120),
		CreateAdmin:     getEnv("CREATE_ADMIN", "false") == "true",
		AdminUserID:     getEnv("ADMIN_USERID", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string { // Helper to get env var or fallback
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
