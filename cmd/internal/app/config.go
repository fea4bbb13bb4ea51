package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Empty DatabaseURL selects the in-memory stores.
	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	DBAutoMigrate bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Browser origin allowlist, shared by CORS and the feed socket.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// Security policy:
	// If true, SAMPLEAPP_SESSION_SECRET MUST be set (>= 32 bytes).
	RequireSessionSecret bool

	WSOriginRequired bool
	WSSendQueueSize  int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("SAMPLEAPP_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("SAMPLEAPP_LOG_LEVEL", "info"),
		LogFormat: EnvString("SAMPLEAPP_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("SAMPLEAPP_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SAMPLEAPP_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SAMPLEAPP_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SAMPLEAPP_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SAMPLEAPP_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:   EnvString("SAMPLEAPP_DATABASE_URL", ""),
		DBMaxConns:    EnvInt32("SAMPLEAPP_DB_MAX_CONNS", 10),
		DBMinConns:    EnvInt32("SAMPLEAPP_DB_MIN_CONNS", 0),
		DBAutoMigrate: EnvBool("SAMPLEAPP_DB_AUTO_MIGRATE", true),

		ReadinessRequireDB: EnvBool("SAMPLEAPP_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   EnvCSV("SAMPLEAPP_CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "http://127.0.0.1:*"}),
		CORSAllowCredentials: EnvBool("SAMPLEAPP_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("SAMPLEAPP_CORS_MAX_AGE_SECONDS", 600),

		RequireSessionSecret: EnvBool("SAMPLEAPP_REQUIRE_SESSION_SECRET", false),

		WSOriginRequired: EnvBool("SAMPLEAPP_WS_ORIGIN_REQUIRED", true),
		WSSendQueueSize:  EnvInt("SAMPLEAPP_WS_SEND_QUEUE", 64),
	}
}
