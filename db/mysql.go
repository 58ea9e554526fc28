package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/dailyyoga/refreshkit/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// startupPing bounds the ping issued by NewMySQL when no DialTimeout is set.
const startupPing = 10 * time.Second

type mysqlDatabase struct {
	logger logger.Logger
	db     *gorm.DB
}

// NewMySQL opens a gorm MySQL pool and pings it before returning.
// Fetches built on the returned Database only read, so statements are
// prepared and cached per connection.
func NewMySQL(log logger.Logger, cfg *Config) (Database, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	gdb, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:                 newGormLogger(log, cfg.LogLevel, cfg.SlowThreshold),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, ErrConnection(err)
	}
	sqldb, err := gdb.DB()
	if err != nil {
		return nil, ErrConnection(err)
	}
	applyPool(sqldb, cfg)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = startupPing
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, ErrConnection(err)
	}

	log.Info("mysql source connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return &mysqlDatabase{logger: log, db: gdb}, nil
}

func applyPool(sqldb *sql.DB, cfg *Config) {
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func (m *mysqlDatabase) DB() (*gorm.DB, error) {
	if m.db == nil {
		return nil, ErrConnectionNotEstablished
	}
	return m.db, nil
}

func (m *mysqlDatabase) sqlDB() (*sql.DB, error) {
	if m.db == nil {
		return nil, ErrConnectionNotEstablished
	}
	sqldb, err := m.db.DB()
	if err != nil {
		return nil, ErrConnection(err)
	}
	return sqldb, nil
}

func (m *mysqlDatabase) Ping(ctx context.Context) error {
	sqldb, err := m.sqlDB()
	if err != nil {
		return err
	}
	return sqldb.PingContext(ctx)
}

func (m *mysqlDatabase) Close() error {
	if m.db == nil {
		return nil
	}
	sqldb, err := m.sqlDB()
	if err != nil {
		return err
	}
	m.logger.Debug("closing mysql source")
	return sqldb.Close()
}
