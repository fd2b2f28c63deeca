package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required variables abort startup when missing;
// optional subsystems (the MySQL issuance log, the message broker) are
// simply disabled when their variables are unset.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	StorageBackend string // "redis" or "file"
	DataDir        string // directory for the file backend
	StoragePrefix  string // optional key prefix for the redis backend

	VerifyBaseURL string // base URL embedded in certificate QR payloads

	DBUser string // issuance log database user (optional)
	DBPass string // issuance log database password (optional)
	DBHost string // issuance log database host (optional)
	DBPort string // issuance log database port (optional)
	DBName string // issuance log database name (optional)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must(); missing values cause
// the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   mustInt("BCRYPT_COST"),

		StorageBackend: getenv("STORAGE_BACKEND", "file"),
		DataDir:        getenv("DATA_DIR", "data"),
		StoragePrefix:  os.Getenv("STORAGE_PREFIX"),

		VerifyBaseURL: getenv("VERIFY_BASE_URL", "https://vacun.org/verify"),

		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: os.Getenv("DB_HOST"),
		DBPort: os.Getenv("DB_PORT"),
		DBName: os.Getenv("DB_NAME"),
	}
}

// IssuanceDBConfigured reports whether the optional MySQL issuance log sink
// has enough configuration to connect.
func (c Config) IssuanceDBConfigured() bool {
	return c.DBUser != "" && c.DBHost != "" && c.DBPort != "" && c.DBName != ""
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// getenv returns the value of an optional variable, or the fallback when it
// is unset or empty.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
