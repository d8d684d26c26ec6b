// Package app инициализирует все компоненты движка.
// app.go — точка сборки: создаёт БД-пул, применяет миграции, собирает
// store, сервис, лимитер, HTTP-сервер и планировщик в один объект.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"emuready.app/trust-engine/internal/api"
	"emuready.app/trust-engine/internal/config"
	"emuready.app/trust-engine/internal/db/postgres"
	"emuready.app/trust-engine/internal/events"
	"emuready.app/trust-engine/internal/features/trust"
	"emuready.app/trust-engine/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	DB        *pgxpool.Pool
	Service   *trust.Service
	Server    *api.Server
	Scheduler *jobs.Scheduler
	sink      *events.KafkaSink // nil, если Kafka не настроена
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Канал событий ===
	// Без брокеров события уходят в структурированные логи
	var sink events.Sink
	var kafkaSink *events.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка создания Kafka-sink: %w", err)
		}
		sink = kafkaSink
	} else {
		sink = events.NewLogSink()
	}

	// === 3. Движок доверия ===
	store := trust.NewPostgresStore(pool)
	metrics := trust.NewMetrics()
	service := trust.NewService(store, cfg, sink, metrics)
	limiter := trust.NewLimiter(store, cfg, metrics)

	// === 4. HTTP-сервер ===
	router := api.NewRouter(service, limiter, cfg, pool.Ping)
	server := api.NewServer(cfg, router)

	// === 5. Планировщик задач ===
	scheduler := jobs.NewScheduler(service, cfg)

	return &App{
		DB:        pool,
		Service:   service,
		Server:    server,
		Scheduler: scheduler,
		sink:      kafkaSink,
	}, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	if a.sink != nil {
		a.sink.Close()
	}
	a.DB.Close()
}

// runMigrations выполняет все SQL-миграции по порядку.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002TrustActionLogs},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

// Таблица пользователей принадлежит платформе; движку нужны только
// id, имя и trust-поля. Хранилище НЕ навязывает trust_score >= 0:
// пол обеспечивается движком на записи, и только там, где он есть.
var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name VARCHAR(255),
    trust_score INTEGER NOT NULL DEFAULT 0,
    last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);
CREATE INDEX IF NOT EXISTS idx_users_last_active_at ON users(last_active_at);
`

var migration002TrustActionLogs = `
CREATE TABLE IF NOT EXISTS trust_action_logs (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    action VARCHAR(50) NOT NULL,
    weight INTEGER NOT NULL,
    metadata JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_trust_logs_user_id ON trust_action_logs(user_id);
CREATE INDEX IF NOT EXISTS idx_trust_logs_user_created ON trust_action_logs(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_trust_logs_user_action_created ON trust_action_logs(user_id, action, created_at DESC);
`
