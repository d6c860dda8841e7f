package env

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/joho/godotenv"
)

// actual environment variables
var PREFORK bool
var DRAIN_MODE bool
var MONGO_URI string
var REDIS_ADDR string
var REDIS_PASSWORD string
var REDIS_DB int

var GITHUB_TOKEN string
var GITHUB_API_URL string

var WEBHOOK_USERNAME string
var WEBHOOK_PASSWORD string
var WEBHOOK_PASSWORD_HASH string
var TRUSTED_CIDRS []string
var DEFAULT_REF string

var PAYOUT_RATE string
var REPOSITORIES string
var REPOSITORIES_FILE string

var COINBASE_API_KEY string
var COINBASE_API_SECRET string
var COINBASE_API_URL string
var COINBASE_DONATION_CODE string

var CACHE_REFRESH_INTERVAL time.Duration

var ORGANIZATION_NAME string
var DONATION_URL string

// this is required
var VERSION string

func Init(envRoot string, appVersion string) {
	loadEnv(envRoot)
	loadVersion(appVersion)

	PREFORK, _ = strconv.ParseBool(os.Getenv("PREFORK"))
	DRAIN_MODE, _ = strconv.ParseBool(os.Getenv("DRAIN_MODE"))
	MONGO_URI = os.Getenv("MONGO_URI")
	REDIS_ADDR = getEnv("REDIS_ADDR", "127.0.0.1:6379")
	REDIS_PASSWORD = os.Getenv("REDIS_PASSWORD")
	REDIS_DB, _ = strconv.Atoi(getEnv("REDIS_DB", "0"))

	GITHUB_TOKEN = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	GITHUB_API_URL = strings.TrimSpace(os.Getenv("GITHUB_API_URL"))

	WEBHOOK_USERNAME = getEnv("WEBHOOK_USERNAME", "bithub")
	WEBHOOK_PASSWORD = os.Getenv("WEBHOOK_PASSWORD")
	WEBHOOK_PASSWORD_HASH = strings.TrimSpace(os.Getenv("WEBHOOK_PASSWORD_HASH"))
	TRUSTED_CIDRS = splitList(os.Getenv("TRUSTED_CIDRS"))
	DEFAULT_REF = getEnv("DEFAULT_REF", "refs/heads/master")

	PAYOUT_RATE = strings.TrimSpace(os.Getenv("PAYOUT_RATE"))
	REPOSITORIES = strings.TrimSpace(os.Getenv("REPOSITORIES"))
	REPOSITORIES_FILE = strings.TrimSpace(os.Getenv("REPOSITORIES_FILE"))

	COINBASE_API_KEY = strings.TrimSpace(os.Getenv("COINBASE_API_KEY"))
	COINBASE_API_SECRET = strings.TrimSpace(os.Getenv("COINBASE_API_SECRET"))
	COINBASE_API_URL = strings.TrimSpace(os.Getenv("COINBASE_API_URL"))
	COINBASE_DONATION_CODE = strings.TrimSpace(os.Getenv("COINBASE_DONATION_CODE"))

	CACHE_REFRESH_INTERVAL = parseDuration(os.Getenv("CACHE_REFRESH_INTERVAL"), time.Minute)

	ORGANIZATION_NAME = os.Getenv("ORGANIZATION_NAME")
	DONATION_URL = os.Getenv("DONATION_URL")
}

// Validate reports every missing setting the server cannot start without.
func Validate() error {
	var errs []error

	if WEBHOOK_PASSWORD == "" && WEBHOOK_PASSWORD_HASH == "" {
		errs = append(errs, errors.New("WEBHOOK_PASSWORD or WEBHOOK_PASSWORD_HASH is required"))
	}
	if PAYOUT_RATE == "" {
		errs = append(errs, errors.New("PAYOUT_RATE is required"))
	}
	if GITHUB_TOKEN == "" {
		errs = append(errs, errors.New("GITHUB_TOKEN is required"))
	}
	if COINBASE_API_KEY == "" || COINBASE_API_SECRET == "" {
		errs = append(errs, errors.New("COINBASE_API_KEY and COINBASE_API_SECRET are required"))
	}
	if REPOSITORIES == "" && REPOSITORIES_FILE == "" {
		errs = append(errs, errors.New("REPOSITORIES or REPOSITORIES_FILE is required"))
	}

	return errors.Join(errs...)
}

func loadEnv(envRoot string) {
	if envRoot == "" {
		envRoot = repoRoot()
	}

	path := path.Join(envRoot, ".env")
	if err := godotenv.Overload(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infof("no env file at %s, using process environment", path)
			return
		}
		log.Fatalf("failed to load env file %s: %v", path, err)
	}
}

func loadVersion(appVersion string) {
	if appVersion != "" {
		VERSION = appVersion
		return
	}

	if v := strings.TrimSpace(os.Getenv("VERSION")); v != "" {
		VERSION = v
		return
	}

	data, err := os.ReadFile(filepath.Join(repoRoot(), "VERSION"))
	if err != nil {
		VERSION = "unknown"
		return
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed != "" {
		VERSION = trimmed
	} else {
		VERSION = "unknown"
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warnf("invalid duration %q, using %s", raw, fallback)
		return fallback
	}
	return d
}

func repoRoot() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(b), "../..")
}
