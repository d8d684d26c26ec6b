// Package config загружает конфигурацию движка из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"trustuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"trust_engine"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- HTTP ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`

	// --- Admin ---
	// Argon2id-хеш токена для админ-эндпоинтов (ручные корректировки, аудит).
	// Генерируется утилитой scripts/generate_hash.go.
	AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH" required:"true"`

	// --- Rate Limiting ---
	// Дневной потолок действий на пользователя (календарный день, UTC)
	DailyActionLimit int `envconfig:"TRUST_DAILY_ACTION_LIMIT" default:"50"`
	// Скользящее окно для голосов и потолок голосов внутри него
	VoteWindow      time.Duration `envconfig:"TRUST_VOTE_WINDOW" default:"1m"`
	VoteWindowLimit int           `envconfig:"TRUST_VOTE_WINDOW_LIMIT" default:"10"`

	// --- Monthly Bonus ---
	// Минимальный возраст аккаунта и максимальная неактивность (в днях)
	BonusMinAccountAgeDays  int `envconfig:"TRUST_BONUS_MIN_ACCOUNT_AGE_DAYS" default:"30"`
	BonusMaxInactivityDays  int `envconfig:"TRUST_BONUS_MAX_INACTIVITY_DAYS" default:"30"`

	// --- Trust Levels ---
	// Минимальный уровень, начиная с которого листинги одобряются автоматически
	AutoApproveMinLevel string `envconfig:"TRUST_AUTO_APPROVE_MIN_LEVEL" default:"Trusted"`

	// --- Events (Kafka) ---
	// Пустой список брокеров = события уходят только в логи
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"trust-events"`

	// --- Jobs ---
	// Бонус идемпотентен в пределах месяца, поэтому его можно безопасно
	// запускать хоть каждый день
	BonusCronSpec  string `envconfig:"TRUST_BONUS_CRON" default:"30 0 * * *"`
	AuditCronSpec  string `envconfig:"TRUST_AUDIT_CRON" default:"0 4 * * 1"`
	JobsEnabled    bool   `envconfig:"TRUST_JOBS_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DailyActionLimit <= 0 {
		return fmt.Errorf("TRUST_DAILY_ACTION_LIMIT должен быть > 0")
	}
	if c.VoteWindowLimit <= 0 || c.VoteWindow <= 0 {
		return fmt.Errorf("некорректные настройки окна голосов")
	}
	if c.BonusMinAccountAgeDays < 0 || c.BonusMaxInactivityDays <= 0 {
		return fmt.Errorf("некорректные настройки месячного бонуса")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
