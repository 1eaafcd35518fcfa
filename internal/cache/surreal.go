package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	sdk "github.com/surrealdb/surrealdb.go"

	"github.com/repojudge/repojudge/internal/config"
)

// Surreal is a SurrealDB-backed Store. Values are stored as JSON strings
// with an absolute expiry; reads filter on expiry so a stale entry behaves
// like a miss even before the row is superseded.
type Surreal struct {
	db *sdk.DB
}

func NewSurreal(ctx context.Context, cfg *config.Config) (*Surreal, error) {
	db, err := sdk.FromEndpointURLString(ctx, cfg.SurrealURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, sdk.Auth{
		Namespace: cfg.SurrealNS,
		Database:  cfg.SurrealDB,
		Username:  cfg.SurrealUser,
		Password:  cfg.SurrealPass,
	}); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("signing in: %w", err)
	}

	if err := db.Use(ctx, cfg.SurrealNS, cfg.SurrealDB); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("selecting ns/db: %w", err)
	}

	return &Surreal{db: db}, nil
}

func (s *Surreal) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

func (s *Surreal) InitSchema(ctx context.Context) error {
	schema := `
DEFINE TABLE IF NOT EXISTS cache_entry SCHEMAFULL;

DEFINE FIELD IF NOT EXISTS key        ON TABLE cache_entry TYPE string;
DEFINE FIELD IF NOT EXISTS value      ON TABLE cache_entry TYPE string;
DEFINE FIELD IF NOT EXISTS expires_at ON TABLE cache_entry TYPE datetime;

DEFINE INDEX IF NOT EXISTS idx_cache_key ON TABLE cache_entry FIELDS key UNIQUE;
`
	_, err := sdk.Query[any](ctx, s.db, schema, nil)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

type cacheRow struct {
	Value string `json:"value"`
}

func (s *Surreal) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	results, err := sdk.Query[[]cacheRow](ctx, s.db,
		`SELECT value FROM cache_entry WHERE key = $key AND expires_at > time::now()`,
		map[string]any{"key": key})
	if err != nil {
		logger.Warnf("Cache get %s: %v", key, err)
		return nil, false
	}
	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, false
	}
	return json.RawMessage((*results)[0].Result[0].Value), true
}

func (s *Surreal) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Errorf("Cache set %s: marshaling value: %v", key, err)
		return
	}

	_, err = sdk.Query[any](ctx, s.db,
		`UPSERT type::thing("cache_entry", $id) MERGE $data`,
		map[string]any{
			"id": recordID(key),
			"data": map[string]any{
				"key":        key,
				"value":      string(data),
				"expires_at": time.Now().UTC().Add(ttl),
			},
		})
	if err != nil {
		logger.Warnf("Cache set %s: %v", key, err)
	}
}

// CountEntries reports live (unexpired) cache entries.
func (s *Surreal) CountEntries(ctx context.Context) (int, error) {
	results, err := sdk.Query[[]map[string]any](ctx, s.db,
		`SELECT count() AS total FROM cache_entry WHERE expires_at > time::now() GROUP ALL`, nil)
	if err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return toInt((*results)[0].Result[0]["total"]), nil
}

// Record ids cannot contain the key's separator characters.
func recordID(key string) string {
	id := strings.ReplaceAll(key, ":", "__")
	return strings.ReplaceAll(id, "/", "__")
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	default:
		return 0
	}
}
