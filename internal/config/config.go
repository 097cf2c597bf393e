package config

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	S3        *s3Config
	Queue     *queueConfig
	Providers *Providers
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql" validate:"oneof=pgsql sqlite"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"analyzer"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	LogLevel        string `envconfig:"ANALYZER_LOG_LEVEL" default:"info"`
	MetricsAddress  string `envconfig:"ANALYZER_METRICS_ADDRESS" default:":8080"`
	MigrationFolder string `envconfig:"ANALYZER_MIGRATIONS_FOLDER" default:"pkg/migrations/sql"`
	EventsTopic     string `envconfig:"ANALYZER_EVENTS_TOPIC" default:""`
}

type s3Config struct {
	Endpoint         string        `envconfig:"ANALYZER_S3_ENDPOINT" default:"localhost:9000"`
	AccessKey        string        `envconfig:"ANALYZER_S3_ACCESS_KEY" default:""`
	SecretKey        string        `envconfig:"ANALYZER_S3_SECRET_KEY" default:""`
	RecordingsBucket string        `envconfig:"ANALYZER_S3_RECORDINGS_BUCKET" default:"recordings"`
	Region           string        `envconfig:"ANALYZER_S3_REGION" default:"us-east-1"`
	UseSSL           bool          `envconfig:"ANALYZER_S3_USE_SSL" default:"false"`
	PresignExpiry    time.Duration `envconfig:"ANALYZER_S3_PRESIGN_EXPIRY" default:"1h" validate:"min=1s,max=168h"`
}

type queueConfig struct {
	MaxWorkers  int           `envconfig:"ANALYZER_QUEUE_MAX_WORKERS" default:"10" validate:"min=1"`
	MaxAttempts int           `envconfig:"ANALYZER_QUEUE_MAX_ATTEMPTS" default:"3" validate:"min=1"`
	JobTimeout  time.Duration `envconfig:"ANALYZER_QUEUE_JOB_TIMEOUT" default:"10m" validate:"min=1s"`
	// RescueAfter is the visibility timeout: a running job silent for this long is handed to another worker.
	RescueAfter time.Duration `envconfig:"ANALYZER_QUEUE_RESCUE_AFTER" default:"15m" validate:"gtfield=JobTimeout"`
	// StuckCheckInterval is how often the worker reports tasks that stopped moving. Zero disables it.
	StuckCheckInterval time.Duration `envconfig:"ANALYZER_STUCK_CHECK_INTERVAL" default:"5m"`
	StuckAfter         time.Duration `envconfig:"ANALYZER_STUCK_AFTER" default:"30m" validate:"min=1s"`
}

// Providers holds the credentials that select the pipeline variant.
// It is re-read on every analysis run.
type Providers struct {
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL      string `envconfig:"OPENAI_BASE_URL" default:""`
	TranscriptionModel string `envconfig:"ANALYZER_TRANSCRIPTION_MODEL" default:"whisper-1"`
	ScoringModel       string `envconfig:"ANALYZER_SCORING_MODEL" default:"gpt-4o-2024-08-06"`

	VolcengineAPIKey         string `envconfig:"VOLCENGINE_API_KEY" default:""`
	VolcengineBaseURL        string `envconfig:"VOLCENGINE_BASE_URL" default:"https://ark.cn-beijing.volces.com/api/v3"`
	VolcengineNarrativeModel string `envconfig:"VOLCENGINE_NARRATIVE_MODEL" default:"doubao-1-5-pro-32k-250115"`
	// VolcengineASRBaseURL is an OpenAI-compatible transcription endpoint. Required with VolcengineAPIKey.
	VolcengineASRBaseURL string `envconfig:"VOLCENGINE_ASR_BASE_URL" default:""`
	VolcengineASRModel   string `envconfig:"VOLCENGINE_ASR_MODEL" default:"whisper-1"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		cfg := new(Config)
		if err := envconfig.Process("", cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// Validate checks the ranges envconfig cannot express.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// NewDefault returns the configuration used by tests: an in-memory sqlite database
// and no provider credentials.
func NewDefault() *Config {
	cfg := new(Config)
	_ = envconfig.Process("", cfg)
	cfg.Database = &dbConfig{
		Type: "sqlite",
		Name: "file::memory:?cache=shared&_foreign_keys=1",
	}
	cfg.Providers = &Providers{
		TranscriptionModel:       "whisper-1",
		ScoringModel:             "gpt-4o-2024-08-06",
		VolcengineNarrativeModel: "doubao-1-5-pro-32k-250115",
		VolcengineASRModel:       "whisper-1",
	}
	return cfg
}

// LoadProviders reads the provider credentials from the environment.
func LoadProviders() (*Providers, error) {
	p := new(Providers)
	if err := envconfig.Process("", p); err != nil {
		return nil, err
	}
	return p, nil
}

// String hides secrets.
func (c *Config) String() string {
	redacted := *c
	if c.S3 != nil {
		s3 := *c.S3
		s3.AccessKey, s3.SecretKey = redact(s3.AccessKey), redact(s3.SecretKey)
		redacted.S3 = &s3
	}
	if c.Database != nil {
		db := *c.Database
		db.Password = redact(db.Password)
		redacted.Database = &db
	}
	if c.Providers != nil {
		p := *c.Providers
		p.OpenAIAPIKey, p.VolcengineAPIKey = redact(p.OpenAIAPIKey), redact(p.VolcengineAPIKey)
		redacted.Providers = &p
	}
	val, _ := json.Marshal(redacted)
	return string(val)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "*****"
}
