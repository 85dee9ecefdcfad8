// Package holdings is the point-in-time snapshot of scenes already
// materialised on local disk.
package holdings

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Index is an immutable set of held scene-key prefixes.
type Index struct {
	prefixes map[string]struct{}
	lengths  []int // distinct prefix lengths, ascending
}

// New builds an index from prefixes. Empty strings are ignored.
func New(prefixes []string) *Index {
	idx := &Index{prefixes: make(map[string]struct{}, len(prefixes))}
	seenLen := make(map[int]bool)
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx.prefixes[p] = struct{}{}
		if !seenLen[len(p)] {
			seenLen[len(p)] = true
			idx.lengths = append(idx.lengths, len(p))
		}
	}
	sort.Ints(idx.lengths)
	return idx
}

// Contains reports exact membership of prefix.
func (idx *Index) Contains(prefix string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.prefixes[prefix]
	return ok
}

// Covers reports whether any held prefix is a prefix of id.
func (idx *Index) Covers(id string) bool {
	if idx == nil {
		return false
	}
	for _, n := range idx.lengths {
		if n > len(id) {
			break
		}
		if _, ok := idx.prefixes[id[:n]]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of distinct held prefixes.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.prefixes)
}

// Prefixes returns the held prefixes in sorted order.
func (idx *Index) Prefixes() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, 0, len(idx.prefixes))
	for p := range idx.prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ReadPrefixFile reads one prefix per line. Blank lines and lines starting
// with '#' are skipped.
func ReadPrefixFile(r io.Reader) (*Index, error) {
	var prefixes []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefixes = append(prefixes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prefix list: %w", err)
	}
	return New(prefixes), nil
}
