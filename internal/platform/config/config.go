package config

import (
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MaxLoginAttempts = 5
	LockoutDuration  = 15 * time.Minute

	// 9 PM IST on the final day of the hackathon.
	DefaultSubmissionDeadline = "2025-05-30T15:30:00Z"
	DefaultOpenProblemFormURL = "https://tally.so/r/mBlbMQ"
)

type Config struct {
	APIPort string
	AppEnv  string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginLimiter string // "redis" or "memory"
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix

	SubmissionDeadline time.Time
	OpenProblemFormURL string

	UploadDir      string
	PublicBaseURL  string
	UploadMaxBytes int64

	TeamLockTTL       time.Duration
	ReconcileInterval time.Duration
	ReconcileLockKey  string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		AppEnv:             getEnv("APP_ENV", "production"),
		JWTKey:             []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:             time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "user"),
		DBPassword:         getEnv("DB_PASSWORD", "password"),
		DBName:             getEnv("DB_NAME", "hackathon_portal"),
		DBSslMode:          getEnv("DB_SSLMODE", "disable"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		LoginLimiter:       getEnv("LOGIN_LIMITER", "redis"),
		TrustedProxies:     getEnvAsPrefixes("TRUSTED_PROXIES"),
		SubmissionDeadline: getEnvAsTime("SUBMISSION_DEADLINE", DefaultSubmissionDeadline),
		OpenProblemFormURL: getEnv("OPEN_PROBLEM_FORM_URL", DefaultOpenProblemFormURL),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		UploadMaxBytes:     int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5<<20)),
		TeamLockTTL:        time.Duration(getEnvAsInt("TEAM_LOCK_TTL_SECONDS", 30)) * time.Second,
		ReconcileInterval:  time.Duration(getEnvAsInt("RECONCILE_INTERVAL_SECONDS", 60)) * time.Second,
		ReconcileLockKey:   getEnv("RECONCILE_LOCK_KEY", "team_selection_reconcile_lock"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsTime parses an RFC 3339 instant. An unparsable value falls back to
// the default, which must itself be valid.
func getEnvAsTime(key, fallback string) time.Time {
	if value, err := time.Parse(time.RFC3339, getEnv(key, fallback)); err == nil {
		return value.UTC()
	}
	log.Printf("Invalid %s, using default %s", key, fallback)
	value, _ := time.Parse(time.RFC3339, fallback)
	return value.UTC()
}

// getEnvAsPrefixes parses a comma separated list of CIDRs or bare addresses.
// Invalid entries are skipped.
func getEnvAsPrefixes(key string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, raw := range strings.Split(getEnv(key, ""), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(raw); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		log.Printf("Ignoring invalid %s entry %q", key, raw)
	}
	return prefixes
}
