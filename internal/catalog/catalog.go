// Package catalog indexes the scene-metadata feed by scene identifier.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/franz/scenelist/internal/report"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// Catalog is an in-memory, read-only index of scene records.
type Catalog struct {
	records   map[string]*scene.Record
	sorted    []string
	conflicts int
}

// Config holds ingest options
type Config struct {
	Logger *report.EventLogger
}

// Ingest builds a catalog. When two records share a scene identifier the
// later one wins; a differing payload is reported as a conflict.
func Ingest(records []*scene.Record, cfg *Config) *Catalog {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Catalog{records: make(map[string]*scene.Record, len(records))}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		key := rec.ID.String()
		if prev, ok := c.records[key]; ok && !prev.Equal(rec) {
			c.conflicts++
			err := fmt.Errorf("%w: %s differs from an earlier record, keeping the later one", util.ErrConflict, key)
			util.WarnLog("%v", err)
			cfg.Logger.LogConflict(key, err.Error())
		}
		c.records[key] = rec
	}

	c.sorted = make([]string, 0, len(c.records))
	for key := range c.records {
		c.sorted = append(c.sorted, key)
	}
	sort.Strings(c.sorted)

	return c
}

// Lookup returns the record for id.
func (c *Catalog) Lookup(id scene.ID) (*scene.Record, bool) {
	return c.LookupString(id.String())
}

// LookupString returns the record for a scene identifier string.
func (c *Catalog) LookupString(id string) (*scene.Record, bool) {
	rec, ok := c.records[id]
	return rec, ok
}

// Len returns the number of distinct scenes.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Conflicts returns the number of duplicate identifiers whose payload differed.
func (c *Catalog) Conflicts() int {
	return c.conflicts
}

// Records returns all records ordered by scene identifier.
func (c *Catalog) Records() []*scene.Record {
	out := make([]*scene.Record, len(c.sorted))
	for i, key := range c.sorted {
		out[i] = c.records[key]
	}
	return out
}

// KeysMatchingPrefix returns, in lexicographic order, the identifiers that
// start with prefix. Each call returns a fresh slice.
func (c *Catalog) KeysMatchingPrefix(prefix string) []scene.ID {
	start := sort.SearchStrings(c.sorted, prefix)
	var out []scene.ID
	for _, key := range c.sorted[start:] {
		if !strings.HasPrefix(key, prefix) {
			break
		}
		out = append(out, c.records[key].ID)
	}
	return out
}
