package chatdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DefaultKnownServices are the services reported in ServiceBreakdown.Breakdown
// when Options.KnownServices is empty.
var DefaultKnownServices = []string{"iMessage", "SMS"}

// Options configures a DB. The zero value is usable.
type Options struct {
	// KnownServices are the buckets always present in ServiceBreakdown.
	KnownServices []string
	// LastMessageOrder selects which message is reported as a
	// conversation's last message.
	LastMessageOrder LastMessageOrder
	// Clock seeds and advances the poll cursor. Defaults to time.Now.
	Clock func() time.Time
	// Since is the initial poll cursor. Defaults to Clock().
	Since time.Time
	// Prober resolves attachment image dimensions. Defaults to ImageProber.
	Prober DimensionProber
	Logger *zap.Logger
}

// DB is read-only query access to a Messages chat.db file.
//
// The store is held on a single connection. Every operation holds mu for its
// whole duration, including nested lookups, so each call observes one
// consistent view of the file. The poll cursor is guarded by the same lock.
type DB struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	opts   Options
	logger *zap.Logger

	lastReadTime int64
}

// Open opens the chat.db at path read-only. The file must already exist;
// Open never creates or migrates a schema.
func Open(path string, opts Options) (*DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve chat db path: %w", err)
	}
	db, err := sql.Open("sqlite3", readOnlyDSN(abs))
	if err != nil {
		return nil, fmt.Errorf("open chat db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping chat db: %w", err)
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if len(opts.KnownServices) == 0 {
		opts.KnownServices = DefaultKnownServices
	}
	if opts.Prober == nil {
		opts.Prober = ImageProber{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	since := opts.Since
	if since.IsZero() {
		since = opts.Clock()
	}

	return &DB{
		db:           db,
		path:         abs,
		opts:         opts,
		logger:       logger.Named("chatdb"),
		lastReadTime: StoreEpochFromTime(since),
	}, nil
}

func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	q := url.Values{}
	q.Set("mode", "ro")
	q.Set("_busy_timeout", "5000")
	u.RawQuery = q.Encode()
	return u.String()
}

// Path returns the file the DB was opened from.
func (d *DB) Path() string { return d.path }

// Close releases the connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// querier is the subset of *sql.Conn the resolver needs. One is borrowed per
// operation and passed down the whole call tree.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withConn runs fn holding the store lock and the single connection.
// Cancellation of ctx is not propagated into the queries: once a traversal
// starts it runs to completion.
func (d *DB) withConn(ctx context.Context, fn func(ctx context.Context, q querier) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return fn(ctx, conn)
}
