package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

// Tiers bundles the cache components shared by every list and search engine
// in the process.
type Tiers struct {
	Memory   *MemoryCache
	Remote   *Client
	Versions *VersionRegistry
	Writer   *Writer
}

// NewTiers wires a memory cache of the given capacity in front of remote.
func NewTiers(remote *Client, memoryCapacity int, logger zerolog.Logger) *Tiers {
	return &Tiers{
		Memory:   NewMemoryCache(memoryCapacity),
		Remote:   remote,
		Versions: NewVersionRegistry(remote),
		Writer:   NewWriter(logger),
	}
}

// Decode unmarshals a remote payload keeping numbers as json.Number, so
// integer cursors and ids survive the round trip unchanged.
func Decode(raw string, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode cached payload: %w", err)
	}
	return nil
}

// Encode marshals v for the remote tier.
func Encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode cached payload: %w", err)
	}
	return string(b), nil
}

// EntryFromRecords builds a memory entry stamped now.
func EntryFromRecords(rows []records.Record, next interface{}) Entry {
	return Entry{Records: rows, NextCursor: next, InsertedAt: time.Now()}
}
