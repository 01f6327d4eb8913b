package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL         = "http://localhost:5000/api/"
	defaultAppEnv         = "local"
	defaultStateDriver    = "disk"
	defaultStateDir       = ".recordshop"
	defaultDatabaseDriver = "sqlite"
	defaultSQLiteDSN      = "recordshop.db"
	defaultRedisAddr      = "localhost:6379"
	defaultFeedAddr       = ":8090"
	defaultTimeout        = "30s"
	defaultRetries        = "1"
	defaultPoolSize       = "8"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json, config/app.yaml and .env over the defaults.
// Process environment variables win over all files.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", "config/app.yaml", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"API_URL":         defaultAPIURL,
		"APP_ENV":         defaultAppEnv,
		"APP_KEY":         "",
		"JWT_SECRET":      "",
		"STATE_DRIVER":    defaultStateDriver,
		"STATE_DIR":       defaultStateDir,
		"DB_DRIVER":       defaultDatabaseDriver,
		"DATABASE_DSN":    "",
		"REDIS_ADDR":      defaultRedisAddr,
		"REDIS_PASSWORD":  "",
		"REQUEST_TIMEOUT": defaultTimeout,
		"HTTP_RETRIES":    defaultRetries,
		"POOL_SIZE":       defaultPoolSize,
		"FEED_ADDR":       defaultFeedAddr,
		"FEED_ORIGINS":    "",
		"LOG_MONGO_URI":   "",
		"OTEL_EXPORTER":   "",

		"STORAGE_DISK":       "local",
		"STORAGE_LOCAL_ROOT": ".",
		"S3_BUCKET":          "",
		"S3_REGION":          "us-east-1",
		"S3_KEY":             "",
		"S3_SECRET":          "",
		"S3_ENDPOINT":        "",
	}
}

// APIURL is the backend base path. It always ends with a slash.
func APIURL() string {
	_ = Load()
	u := get("API_URL", defaultAPIURL)
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// AppKey seeds at-rest encryption of the persisted session.
func AppKey() string {
	_ = Load()
	return get("APP_KEY", "")
}

// JWTSecret enables HS256 verification of login tokens when non-empty.
func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", "")
}

// StateDriver selects where cart snapshots and the session live:
// memory, disk, redis or sql.
func StateDriver() string {
	_ = Load()
	driver := strings.ToLower(get("STATE_DRIVER", defaultStateDriver))
	switch driver {
	case "memory", "disk", "redis", "sql":
		return driver
	default:
		return defaultStateDriver
	}
}

func StateDir() string {
	_ = Load()
	return get("STATE_DIR", defaultStateDir)
}

func DatabaseDriver() string {
	_ = Load()

	driver := strings.ToLower(get("DB_DRIVER", defaultDatabaseDriver))
	switch driver {
	case "sqlite", "postgres", "mysql", "sqlserver":
		return driver
	default:
		return defaultDatabaseDriver
	}
}

func DatabaseDSN() string {
	_ = Load()

	if override := get("DATABASE_DSN", ""); override != "" {
		return override
	}
	if DatabaseDriver() == "sqlite" {
		return defaultSQLiteDSN
	}
	return ""
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// RequestTimeout is the per-attempt deadline of every backend call.
func RequestTimeout() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("REQUEST_TIMEOUT", defaultTimeout))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// HTTPRetries is the total number of attempts per call (1 = no retry).
func HTTPRetries() int {
	_ = Load()
	return positiveInt("HTTP_RETRIES", 1)
}

// PoolSize bounds concurrent record lookups.
func PoolSize() int {
	_ = Load()
	return positiveInt("POOL_SIZE", 8)
}

func FeedAddr() string {
	_ = Load()
	return get("FEED_ADDR", defaultFeedAddr)
}

// FeedOrigins lists the browser origins allowed to read the feed, from a
// comma separated FEED_ORIGINS. Empty means any origin.
func FeedOrigins() []string {
	_ = Load()
	var out []string
	for _, o := range strings.Split(get("FEED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func LogMongoURI() string {
	_ = Load()
	return get("LOG_MONGO_URI", "")
}

// OTelExporter is "", "stdout" or "otlp".
func OTelExporter() string {
	_ = Load()
	return strings.ToLower(get("OTEL_EXPORTER", ""))
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string    { _ = Load(); return get("STORAGE_DISK", "local") }
func StorageLocalRoot() string  { _ = Load(); return get("STORAGE_LOCAL_ROOT", ".") }
func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }

func loadFromFiles(jsonPath, yamlPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(jsonPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeYAMLConfig(yamlPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeDotEnv(envPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}

	for key := range loaded {
		if v, ok := os.LookupEnv(key); ok {
			loaded[key] = strings.TrimSpace(v)
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeFlat(doc, out)
	return nil
}

func mergeYAMLConfig(path string, out map[string]string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeFlat(doc, out)
	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}
	return nil
}

// mergeFlat copies scalar top-level entries; nested objects are ignored.
func mergeFlat(doc map[string]interface{}, out map[string]string) {
	for key, val := range doc {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(v)
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, strconv.Itoa(fallback)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a key at runtime. CLI flags use it after Load.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
