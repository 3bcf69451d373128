// Package probe checks connectivity of the storage backends for the
// diagnostics endpoint.
package probe

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shandysiswandi/hirelens/internal/health/usecase"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func down(err error) usecase.ProbeResult {
	return usecase.ProbeResult{Status: usecase.StatusDown, Error: err.Error()}
}

type pgConn interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres pings the pool and lists tables in the public schema.
type Postgres struct {
	conn pgConn
}

func NewPostgres(conn pgConn) *Postgres {
	return &Postgres{conn: conn}
}

func (*Postgres) Name() string { return "postgres" }

func (p *Postgres) Check(ctx context.Context) usecase.ProbeResult {
	if err := p.conn.Ping(ctx); err != nil {
		return down(err)
	}

	rows, err := p.conn.Query(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name LIMIT 10`)
	if err != nil {
		return down(err)
	}

	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return down(err)
	}

	return usecase.ProbeResult{Status: usecase.StatusUp, Collections: tables}
}

// Redis pings the server and samples the OTP keyspace. Keys are reduced to
// their first two segments so identifiers and codes do not leak.
type Redis struct {
	client redis.UniversalClient
	match  string
}

func NewRedis(client redis.UniversalClient, match string) *Redis {
	if match == "" {
		match = "*"
	}
	return &Redis{client: client, match: match}
}

func (*Redis) Name() string { return "redis" }

func (r *Redis) Check(ctx context.Context) usecase.ProbeResult {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return down(err)
	}

	keys, _, err := r.client.Scan(ctx, 0, r.match, 100).Result()
	if err != nil {
		return down(err)
	}

	return usecase.ProbeResult{Status: usecase.StatusUp, Collections: keyPrefixes(keys)}
}

func keyPrefixes(keys []string) []string {
	prefixes := lo.Uniq(lo.Map(keys, func(k string, _ int) string {
		parts := strings.SplitN(k, ":", 3)
		return strings.Join(parts[:min(len(parts), 2)], ":")
	}))
	sort.Strings(prefixes)
	return prefixes
}

// Mongo pings the deployment and lists collection names.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (*Mongo) Name() string { return "mongo" }

func (m *Mongo) Check(ctx context.Context) usecase.ProbeResult {
	if err := m.db.Client().Ping(ctx, nil); err != nil {
		return down(err)
	}

	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return down(err)
	}
	sort.Strings(names)

	return usecase.ProbeResult{Status: usecase.StatusUp, Collections: names}
}
