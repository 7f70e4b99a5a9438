package docsync

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/docsync/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	database config.DatabaseConfig
	index    config.IndexConfig

	tempDir    string
	verifyText bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres stores documents in a PostgreSQL database.
func WithPostgres(host string, port int, user, password, name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.database.Driver = "postgres"
		c.database.Host = host
		c.database.Port = port
		c.database.User = user
		c.database.Password = password
		c.database.Name = name
	})
}

// WithSQLite stores documents in an embedded SQLite file. ":memory:" keeps
// them in memory for the life of the client.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.database.Driver = "sqlite"
		c.database.Path = path
	})
}

// WithRedis configures the search index on a Redis 8+ (or Redis Stack) instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index.Host, c.index.Port = splitAddr(addr)
		c.index.Password = password
	})
}

// WithIndexName sets the search index name. Keys are prefixed with "<name>:".
// Default: documents.
func WithIndexName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index.Name = name
	})
}

// WithChunkSize sets how many index writes are pipelined per round-trip
// during bulk creates. Default: 500.
func WithChunkSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.index.ChunkSize = n
	})
}

// WithTempDir sets where ImportFile spools remote downloads.
func WithTempDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.tempDir = dir
	})
}

// WithVerifyText makes Reconcile also rewrite index entries whose text
// differs from the record store.
func WithVerifyText() Option {
	return optionFunc(func(c *clientConfig) {
		c.verifyText = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
