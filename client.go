package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bridgeorm/engine/ecode"
	"github.com/bridgeorm/engine/schema"
	"github.com/bridgeorm/engine/security"
)

// poolRegistry is the process-wide cache of open pools keyed by normalised
// URL (spec.md §4.6: "one connection pool per configured cluster URL... a
// process-wide registry keyed by normalised URL"). Writers are rare —
// one per distinct URL a process ever connects to — so a sync.RWMutex is
// sufficient, exactly as package schema's Registry reasons about its own
// read/write ratio.
var (
	poolRegistryMu sync.RWMutex
	poolRegistry   = make(map[string]*Client)
)

func normalizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// Client wraps one pooled connection to a cluster plus the process-wide
// schema registry the host binding registers classes into.
type Client struct {
	cfg      Config
	mongo    *mongo.Client
	Registry *schema.Registry
	Hooks    Hooks
}

// Connect returns the Client for cfg.URL, dialing a new pool only the first
// time a given normalised URL is seen by this process; subsequent calls
// with the same URL reuse the pooled Client, matching spec.md's
// process-wide pool registry. cfg fields other than URL are applied only
// when this call is the one that actually dials.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key := normalizeURL(cfg.URL)

	poolRegistryMu.RLock()
	if c, ok := poolRegistry[key]; ok {
		poolRegistryMu.RUnlock()
		return c, nil
	}
	poolRegistryMu.RUnlock()

	poolRegistryMu.Lock()
	defer poolRegistryMu.Unlock()
	if c, ok := poolRegistry[key]; ok {
		return c, nil
	}

	opts := options.Client().ApplyURI(cfg.URL)
	if cfg.MaxPoolSize > 0 {
		opts = opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts = opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.ConnectTimeout > 0 {
		opts = opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.SocketTimeout > 0 {
		opts = opts.SetSocketTimeout(cfg.SocketTimeout)
	}
	if cfg.AppName != "" {
		opts = opts.SetAppName(cfg.AppName)
	}

	mc, err := mongo.Connect(opts)
	if err != nil {
		return nil, &errConnect{cause: err}
	}
	if err := mc.Ping(ctx, nil); err != nil {
		_ = mc.Disconnect(ctx)
		return nil, &errConnect{cause: err}
	}

	c := &Client{cfg: cfg, mongo: mc, Registry: schema.NewRegistry()}
	poolRegistry[key] = c
	return c, nil
}

// Disconnect closes the pool and removes it from the process-wide
// registry, so a later Connect with the same URL dials a fresh pool rather
// than reusing a closed one.
func (c *Client) Disconnect(ctx context.Context) error {
	poolRegistryMu.Lock()
	delete(poolRegistry, normalizeURL(c.cfg.URL))
	poolRegistryMu.Unlock()
	return c.mongo.Disconnect(ctx)
}

// Collection returns a handle to a named collection in the given database,
// running security.ValidateCollectionName once per handle per
// spec.md §4.1/§4.6.
func (c *Client) Collection(database, name string) (*Collection, error) {
	if err := security.ValidateCollectionName(name); err != nil {
		return nil, &ecode.InvalidIdentifier{Cause: err}
	}
	raw := c.mongo.Database(database).Collection(name)
	return &Collection{
		name:     name,
		client:   c,
		raw:      raw,
		driver:   realDriverCollection{raw},
		hooks:    c.Hooks,
		registry: c.Registry,
	}, nil
}

type errConnect struct{ cause error }

func (e *errConnect) Error() string { return fmt.Sprintf("engine: connect: %s", e.cause) }
func (e *errConnect) Unwrap() error { return e.cause }
