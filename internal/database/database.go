package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const pingTimeout = 10 * time.Second

// driverNames maps our driver names to the database/sql registrations. The
// mysql and oracle drivers register through the imports in dsn.go.
var driverNames = map[string]string{
	"oracle":   "oracle",
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

// Session pins a single connection for the lifetime of the process. Calls
// are serialized; when the driver reports the connection dead it is dropped
// and the next call acquires a fresh one.
type Session struct {
	logger *zap.Logger

	mu   sync.Mutex
	db   *sql.DB
	conn *sql.Conn
}

// Open connects with the given driver and DSN, pins one connection and
// pings it. Any failure here is fatal to the caller.
func Open(ctx context.Context, drv, dsn string, logger *zap.Logger) (*Session, error) {
	name, ok := driverNames[drv]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", drv)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open %s: %w", drv, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := NewSession(db, logger)
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.Ping(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSession wraps an already opened pool. The connection is acquired on
// first use.
func NewSession(db *sql.DB, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{db: db, logger: logger}
}

// QueryContext runs query on the pinned connection. Rows must be closed
// before the next call, which the single probe loop guarantees.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		s.dropIfBroken(err)
		return nil, err
	}
	return rows, nil
}

func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	if err := conn.PingContext(ctx); err != nil {
		s.dropIfBroken(err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Session) acquire(ctx context.Context) (*sql.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	s.conn = conn
	s.logger.Debug("db_connection_acquired")
	return conn, nil
}

func (s *Session) dropIfBroken(err error) {
	if !Broken(err) || s.conn == nil {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
	s.logger.Warn("db_connection_lost", zap.Error(err))
}

// Broken reports whether err means the connection itself is unusable, as
// opposed to a failed statement.
func Broken(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}
