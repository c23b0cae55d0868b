package llm

import (
	"crypto/sha256"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/common"
)

// cacheTTL bounds how long a cached reply stays valid. Long enough to cover
// a re-run of the same transcript set, short enough that model upgrades
// flush through within a day.
const cacheTTL = 24 * time.Hour

// ResponseCache stores generate replies keyed by prompt so repeated runs
// over the same transcripts skip identical upstream calls.
type ResponseCache struct {
	db     *badger.DB
	logger arbor.ILogger
}

// NewResponseCache opens (or creates) the BadgerDB cache directory.
func NewResponseCache(config *common.CacheConfig, logger arbor.ILogger) (*ResponseCache, error) {
	if config.ResetOnStartup {
		if err := os.RemoveAll(config.Path); err != nil {
			logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to reset response cache")
		}
	}

	opts := badger.DefaultOptions(config.Path)
	opts.Logger = nil // Badger's own logger is too chatty for a cache

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open response cache at %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("LLM response cache opened")

	return &ResponseCache{db: db, logger: logger}, nil
}

// Key derives the cache key for a prompt at a given provider, model and
// temperature. Any of those changing must miss the cache.
func Key(provider ProviderType, model, prompt string, temperature float64) []byte {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.2f|%s", provider, model, temperature, prompt)))
	return sum[:]
}

// Get returns the cached reply for a key, or ("", false) on miss.
func (c *ResponseCache) Get(key []byte) (string, bool) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", false
	}
	return string(value), true
}

// Set stores a reply under a key with the cache TTL. Failures are logged
// and swallowed - the cache is best effort.
func (c *ResponseCache) Set(key []byte, reply string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, []byte(reply)).WithTTL(cacheTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to write LLM response cache entry")
	}
}

// Close closes the underlying BadgerDB.
func (c *ResponseCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
