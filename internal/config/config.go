package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Email domain marker that identifies institutional student accounts.
	DomainMarker string

	// Postgres (split-tables store)
	PostgresDSN string

	// SQLite (local wide-table store)
	SQLitePath string

	// Upload behavior
	BatchSize      int
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// SFTP artifact delivery
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool
}

func Load() Config {
	return Config{
		DomainMarker: getenv("DOMAIN_MARKER", "@edu.hse.ru"),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		SQLitePath: getenv("SQLITE_PATH", "consolidated.db"),

		BatchSize:      getenvInt("UPLOAD_BATCH_SIZE", 200),
		RetryAttempts:  getenvInt("UPLOAD_RETRY_ATTEMPTS", 3),
		RetryBaseDelay: time.Duration(getenvInt("UPLOAD_RETRY_BASE_DELAY_MS", 2000)) * time.Millisecond,

		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
