package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Vision   VisionConfig
	Email    EmailConfig
	Quiz     QuizConfig
	Analysis AnalysisConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// AuthConfig содержит настройки аутентификации
type AuthConfig struct {
	RefreshTokenLifetime int `mapstructure:"refreshTokenLifetime"` // Часы
}

// StorageConfig содержит настройки S3-совместимого хранилища изображений
type StorageConfig struct {
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"`         // Пусто для AWS, адрес для S3-совместимых хранилищ
	PublicBaseURL  string `mapstructure:"public_base_url"`  // База публичных ссылок на объекты
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"` // Лимит размера загружаемого изображения
}

// VisionConfig содержит настройки vision LLM API
type VisionConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"` // По умолчанию https://api.openai.com/v1
	Model      string `mapstructure:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// EmailConfig содержит настройки отправки писем (Resend)
type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// QuizConfig содержит настройки квиз-сессий
type QuizConfig struct {
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes"` // Время жизни неактивной сессии
}

// AnalysisConfig содержит настройки пайплайна анализа изображений
type AnalysisConfig struct {
	Workers       int `mapstructure:"workers"`         // Количество воркеров очереди
	QueueSize     int `mapstructure:"queue_size"`      // Размер буфера очереди
	CacheTTLHours int `mapstructure:"cache_ttl_hours"` // TTL кеша результатов анализа
	MaxTags       int `mapstructure:"max_tags"`        // Максимум тегов на запись
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 30)
	vip.SetDefault("jwt.expirationHrs", 24)
	vip.SetDefault("auth.refreshTokenLifetime", 720)
	vip.SetDefault("vision.base_url", "https://api.openai.com/v1")
	vip.SetDefault("vision.model", "gpt-4.1")
	vip.SetDefault("vision.timeout_sec", 120)
	vip.SetDefault("storage.max_upload_bytes", 10<<20)
	vip.SetDefault("quiz.session_ttl_minutes", 60)
	vip.SetDefault("analysis.workers", 4)
	vip.SetDefault("analysis.queue_size", 64)
	vip.SetDefault("analysis.cache_ttl_hours", 24)
	vip.SetDefault("analysis.max_tags", 5)

	// Привязываем переменные окружения ЯВНО
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секций JWT и Auth
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")
	vip.BindEnv("auth.refreshTokenLifetime", "AUTH_REFRESHTOKENLIFETIME")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// Привязка для хранилища изображений
	vip.BindEnv("storage.region", "STORAGE_REGION")
	vip.BindEnv("storage.bucket", "STORAGE_BUCKET")
	vip.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	vip.BindEnv("storage.public_base_url", "STORAGE_PUBLIC_BASE_URL")

	// Привязка для vision API
	vip.BindEnv("vision.api_key", "OPENAI_API_KEY")
	vip.BindEnv("vision.base_url", "VISION_BASE_URL")
	vip.BindEnv("vision.model", "VISION_MODEL")

	// Привязка для почты
	vip.BindEnv("email.enabled", "EMAIL_ENABLED")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	// Путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Не страшно, если файла нет: есть BindEnv и дефолты
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("Storage Bucket: %s", cfg.Storage.Bucket)
		log.Printf("Vision Model: %s", cfg.Vision.Model)
		log.Printf("Email Enabled: %t", cfg.Email.Enabled)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Vision.APIKey == "" {
		return nil, fmt.Errorf("vision API key is required in config (check OPENAI_API_KEY env var)")
	}
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required in config (check STORAGE_BUCKET env var)")
	}
	if cfg.Email.Enabled && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("resend API key is required when email is enabled (check RESEND_API_KEY env var)")
	}

	return &cfg, nil
}
