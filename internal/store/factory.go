package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/heimdall/internal/store/core"
	"github.com/dropDatabas3/heimdall/internal/store/memory"
	"github.com/dropDatabas3/heimdall/internal/store/mongo"
	"github.com/dropDatabas3/heimdall/internal/store/pg"
)

type Config struct {
	Driver string
	DSN    string
	Mongo  struct{ URI, Database string }
}

// Open instancia el core.Repository según el driver configurado.
func Open(ctx context.Context, cfg Config) (core.Repository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "mongo", "mongodb", "":
		return mongo.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	case "postgres", "pg", "postgresql":
		return pg.New(ctx, cfg.DSN)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
