// Package genomestore persists genomes by owner id with optimistic
// concurrency on the genome version.
package genomestore

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/genome"
)

// Store defines the persistence port for genomes.
// Update must fail with apperr.ErrConflict when the stored version differs
// from expectedVersion, and with apperr.ErrNotFound when no genome exists.
type Store interface {
	Get(ctx context.Context, ownerID string) (genome.Genome, error)
	Create(ctx context.Context, g genome.Genome) error
	Update(ctx context.Context, g genome.Genome, expectedVersion int) error
	Delete(ctx context.Context, ownerID string) error
	List(ctx context.Context, limit, offset int) ([]Summary, int, error)
	Close() error
}

// Summary is a lightweight listing row.
type Summary struct {
	OwnerID   string       `json:"userId"`
	GenomeID  string       `json:"id"`
	Version   int          `json:"version"`
	Primary   archetype.ID `json:"primary"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func summarize(g genome.Genome) Summary {
	return Summary{
		OwnerID:   g.OwnerID,
		GenomeID:  g.ID,
		Version:   g.Version,
		Primary:   g.Archetype.Primary.ID,
		UpdatedAt: g.UpdatedAt,
	}
}

// Driver names.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// Config selects and configures a driver.
type Config struct {
	Driver string      `yaml:"driver"`
	SQLite SQLiteConf  `yaml:"sqlite"`
	Redis  RedisConfig `yaml:"redis"`
	Mongo  MongoConfig `yaml:"mongo"`
}

type SQLiteConf struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(cfg.SQLite.Path)
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return OpenRedis(ctx, cfg.Redis)
	case DriverMongo:
		return OpenMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("genomestore: unknown driver %q", cfg.Driver)
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
