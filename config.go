package showroom

import "time"

// ModelConfig tunes the LLM backends. An empty ModelID selects the backend's own default.
type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

// CatalogConfig describes where the inventory export lives and how it is cached.
type CatalogConfig struct {
	Source       string        `env:"CATALOG_SOURCE,default=http"`
	URL          string        `env:"CATALOG_URL"`
	Path         string        `env:"CATALOG_PATH,default=artifacts/inventory.csv"`
	S3Bucket     string        `env:"CATALOG_S3_BUCKET"`
	S3Key        string        `env:"CATALOG_S3_KEY"`
	GCSBucket    string        `env:"CATALOG_GCS_BUCKET"`
	GCSObject    string        `env:"CATALOG_GCS_OBJECT"`
	Format       string        `env:"CATALOG_FORMAT,default=csv"`
	XLSXSheet    string        `env:"CATALOG_XLSX_SHEET"`
	ActiveStatus string        `env:"CATALOG_ACTIVE_STATUS,default=판매중"`
	CacheTTL     time.Duration `env:"CATALOG_CACHE_TTL,default=0s"`
	RedisAddress string        `env:"REDIS_ADDRESS"`
}

type RecommendConfig struct {
	Backend            string        `env:"RECOMMEND_BACKEND,default=webhook"`
	WebhookURL         string        `env:"RECOMMEND_WEBHOOK_URL"`
	Timeout            time.Duration `env:"RECOMMEND_TIMEOUT,default=30s"`
	FallbackSize       int           `env:"RECOMMEND_FALLBACK_SIZE,default=3"`
	FallbackFormat     string        `env:"RECOMMEND_FALLBACK_FORMAT"`
	BaseOllamaEndpoint string        `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	SlackWebhookURL    string        `env:"SLACK_WEBHOOK_URL"`
	SlackChannel       string        `env:"SLACK_CHANNEL,default=#showroom-alerts"`
}

type ServerConfig struct {
	Port                   string   `env:"PORT,default=8080"`
	AllowedOrigins         []string `env:"CORS_ALLOWED_ORIGINS,default=*"`
	RecommendRatePerMinute int      `env:"RECOMMEND_RATE_PER_MINUTE,default=0"`
	RecommendRateBurst     int      `env:"RECOMMEND_RATE_BURST,default=5"`
}
