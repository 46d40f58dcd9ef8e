package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"obra/internal/log"
)

// DefaultEmbeddedPath is where the embedded database lives when no
// DATABASE_URL is configured.
const DefaultEmbeddedPath = "obra_database.db"

// managedHosts are database-as-a-service domains whose servers require TLS.
// A DATABASE_URL pointing at one of them gets sslmode=require unless the
// URL already says otherwise.
var managedHosts = []string{
	"neon.tech",
	"supabase.co",
	"render.com",
	"railway.app",
	"amazonaws.com",
	"azure.com",
	"digitalocean.com",
}

// Provider selects a backend from the environment and opens it once per
// process. A DATABASE_URL targets the server backend; otherwise the
// embedded single-file database is used. If the server open fails, the
// provider falls back once to the embedded backend and logs the downgrade.
//
// The resolved kind is cached for the process lifetime. Concurrent first
// opens share a single probe.
type Provider struct {
	databaseURL  string
	embeddedPath string
	logger       *log.Logger

	group singleflight.Group
	store atomic.Pointer[Store]
}

func NewProvider(databaseURL, embeddedPath string, logger *log.Logger) *Provider {
	if embeddedPath == "" {
		embeddedPath = DefaultEmbeddedPath
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Provider{
		databaseURL:  databaseURL,
		embeddedPath: embeddedPath,
		logger:       logger.WithComponent(log.ComponentStorage),
	}
}

// Open returns the process-wide store, opening it on first use.
func (p *Provider) Open(ctx context.Context) (*Store, error) {
	if s := p.store.Load(); s != nil {
		return s, nil
	}
	v, err, _ := p.group.Do("open", func() (any, error) {
		if s := p.store.Load(); s != nil {
			return s, nil
		}
		s, err := p.open(ctx)
		if err != nil {
			return nil, err
		}
		p.store.Store(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Kind reports the cached backend kind. ok is false until the first
// successful Open resolved it.
func (p *Provider) Kind() (BackendKind, bool) {
	if s := p.store.Load(); s != nil {
		return s.Dialect.Kind(), true
	}
	return "", false
}

// Close releases the cached store. Idempotent.
func (p *Provider) Close() error {
	if s := p.store.Swap(nil); s != nil {
		return s.Close()
	}
	return nil
}

func (p *Provider) open(ctx context.Context) (*Store, error) {
	if p.databaseURL != "" {
		s, err := p.openServer(ctx)
		if err == nil {
			p.logger.InfoContext(ctx, "Connected to server backend", log.FieldBackend, BackendServer)
			return s, nil
		}
		// One-shot downgrade, never mid-transaction.
		p.logger.WarnContext(ctx, "Server backend unavailable, falling back to embedded",
			log.FieldBackend, BackendEmbedded, log.FieldError, err)
	}
	return p.openEmbedded(ctx)
}

func (p *Provider) openServer(ctx context.Context) (*Store, error) {
	dsn := normalizeServerURL(p.databaseURL)
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open server database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping server database: %w", err)
	}
	return NewStore(db, DialectFor(BackendServer)), nil
}

func (p *Provider) openEmbedded(ctx context.Context) (*Store, error) {
	db, err := sqlx.Open("sqlite", embeddedDSN(p.embeddedPath))
	if err != nil {
		return nil, fmt.Errorf("open embedded database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping embedded database: %w", err)
	}
	p.logger.InfoContext(ctx, "Opened embedded backend",
		log.FieldBackend, BackendEmbedded, "path", p.embeddedPath)
	return NewStore(db, DialectFor(BackendEmbedded)), nil
}

// embeddedDSN enables foreign key enforcement and a write busy timeout on
// every pooled connection.
func embeddedDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// normalizeServerURL appends sslmode=require for known managed-database
// hosts when the URL does not already pin an sslmode.
func normalizeServerURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("sslmode") != "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	for _, suffix := range managedHosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			q.Set("sslmode", "require")
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return raw
}
