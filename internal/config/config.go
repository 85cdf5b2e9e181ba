package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"academic-auth-be/pkg/processing"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Auth       AuthConfig
	Processing ProcessingConfig
	Provider   ProviderConfig
	Storage    StorageConfig
	Settings   SettingsConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	SocketLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	StaticDir          string
	BodyLimitMB        int
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type ProcessingConfig struct {
	UploadStep           int
	UploadInterval       time.Duration
	OCRStep              int
	OCRInterval          time.Duration
	ValidateStep         int
	ValidateInterval     time.Duration
	QRRequiresValidation bool
	SubmissionTTL        time.Duration
	CaptureLeaseTTL      time.Duration
	StoreConcurrency     int
}

// Machine converts the processing section into the orchestrator config.
func (p ProcessingConfig) Machine() processing.Config {
	return processing.Config{
		Steps: map[processing.Phase]processing.StepConfig{
			processing.PhaseUpload:   {Increment: p.UploadStep, Interval: p.UploadInterval},
			processing.PhaseOCR:      {Increment: p.OCRStep, Interval: p.OCRInterval},
			processing.PhaseValidate: {Increment: p.ValidateStep, Interval: p.ValidateInterval},
		},
		QRRequiresValidation: p.QRRequiresValidation,
	}
}

type ProviderConfig struct {
	Mode                 string // "fixture" or "live"
	GeminiAPIKey         string
	GeminiModel          string
	FixtureDelay         time.Duration
	AutoApproveThreshold int
}

type StorageConfig struct {
	Driver    string // "local" or "gcs"
	LocalDir  string
	GCSBucket string
}

type SettingsConfig struct {
	DefaultsFile string
	CacheTTL     time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SocketLogFilePath:  getEnv("SOCKET_LOG_FILE_PATH", "logs/socket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			StaticDir:          getEnv("STATIC_DIR", "./web/dist"),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 50),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "AcademicAuth"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Processing: ProcessingConfig{
			UploadStep:           getEnvAsInt("PROCESSING_UPLOAD_STEP", 10),
			UploadInterval:       getEnvAsDuration("PROCESSING_UPLOAD_INTERVAL", 200*time.Millisecond),
			OCRStep:              getEnvAsInt("PROCESSING_OCR_STEP", 15),
			OCRInterval:          getEnvAsDuration("PROCESSING_OCR_INTERVAL", 300*time.Millisecond),
			ValidateStep:         getEnvAsInt("PROCESSING_VALIDATE_STEP", 20),
			ValidateInterval:     getEnvAsDuration("PROCESSING_VALIDATE_INTERVAL", 250*time.Millisecond),
			QRRequiresValidation: getEnvAsBool("PROCESSING_QR_REQUIRES_VALIDATION", false),
			SubmissionTTL:        getEnvAsDuration("PROCESSING_SUBMISSION_TTL", time.Hour),
			CaptureLeaseTTL:      getEnvAsDuration("CAPTURE_LEASE_TTL", 5*time.Minute),
			StoreConcurrency:     getEnvAsInt("PROCESSING_STORE_CONCURRENCY", 10),
		},
		Provider: ProviderConfig{
			Mode:                 getEnv("PROVIDER_MODE", "fixture"),
			GeminiAPIKey:         getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GeminiModel:          getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			FixtureDelay:         getEnvAsDuration("FIXTURE_DELAY", 0),
			AutoApproveThreshold: getEnvAsInt("AUTO_APPROVE_THRESHOLD", 90),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "local"),
			LocalDir:  getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			GCSBucket: getEnv("STORAGE_GCS_BUCKET", ""),
		},
		Settings: SettingsConfig{
			DefaultsFile: getEnv("SETTINGS_DEFAULTS_FILE", "config/settings.yaml"),
			CacheTTL:     getEnvAsDuration("SETTINGS_CACHE_TTL", 10*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
