package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// sqliteDriver is go-sqlite3 with LOWER replaced by a Unicode-aware version;
// the built-in one folds ASCII only.
const sqliteDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

// Config holds the connection settings for the relational store.
type Config struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DB wraps the sqlx pool shared by all repositories.
type DB struct {
	*sqlx.DB
	driver string
}

// NewConnection opens the pool and verifies it with a ping.
func NewConnection(cfg Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	driverName := driver
	if driver == "sqlite3" {
		driverName = sqliteDriver
	}

	db, err := sqlx.Open(driverName, dsn(driver, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite3" {
		// :memory: databases are per-connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

func dsn(driver string, cfg Config) string {
	switch driver {
	case "sqlite3":
		name := cfg.DBName
		if name == "" {
			name = ":memory:"
		}
		return name + "?_foreign_keys=on"
	case "pgx":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
	default:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	}
}

// Driver reports the database/sql driver name in use.
func (d *DB) Driver() string {
	return d.driver
}

// HealthCheck pings the database.
func (d *DB) HealthCheck(ctx context.Context) error {
	return d.PingContext(ctx)
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	return d.DB.Close()
}
