// Package proclist accumulates selected scenes into per-family processing
// lists and emits them in a stable order.
package proclist

import (
	"fmt"
	"sort"
	"sync"

	"github.com/franz/scenelist/internal/catalog"
	"github.com/franz/scenelist/internal/exclude"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// Mechanism records how a scene entered the list.
type Mechanism string

const (
	MechanismDirect   Mechanism = "direct"
	MechanismNeighbor Mechanism = "neighbor"
	MechanismMissing  Mechanism = "missing"
)

// State is the list lifecycle: Empty -> Populated -> Frozen.
type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateFrozen
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateFrozen:
		return "frozen"
	}
	return "unknown"
}

// FrozenListError is returned by writes after Emit.
type FrozenListError struct {
	Op string
}

func (e *FrozenListError) Error() string {
	return fmt.Sprintf("%s: processing list already emitted", e.Op)
}

func (e *FrozenListError) Unwrap() error { return util.ErrFrozen }

// Item is one emitted scene.
type Item struct {
	ID        scene.ID
	OutputID  string
	Family    scene.Family
	DateKey   scene.DateKey
	Mechanism Mechanism
}

// Builder accumulates scenes. Writes are serialized; readers may call
// Contains concurrently.
type Builder struct {
	mu         sync.RWMutex
	catalog    *catalog.Catalog
	exclusions *exclude.Rules
	holdings   *holdings.Index
	items      map[scene.ID]*Item
	state      State
}

// New creates an empty builder over the run's snapshots.
func New(cat *catalog.Catalog, rules *exclude.Rules, held *holdings.Index) *Builder {
	return &Builder{
		catalog:    cat,
		exclusions: rules,
		holdings:   held,
		items:      make(map[scene.ID]*Item),
	}
}

// AddAccepted inserts id into its family partition. It reports whether the
// scene was new; re-adding a scene keeps its first mechanism.
func (b *Builder) AddAccepted(id scene.ID, family scene.Family, date scene.DateKey, mech Mechanism) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateFrozen {
		return false, &FrozenListError{Op: "add"}
	}
	return b.insert(id, family, date, mech)
}

func (b *Builder) insert(id scene.ID, family scene.Family, date scene.DateKey, mech Mechanism) (bool, error) {
	if family == scene.FamilyUnknown {
		return false, fmt.Errorf("%w: %s has no sensor family", util.ErrMalformed, id)
	}
	if _, ok := b.items[id]; ok {
		return false, nil
	}

	out := id.String()
	if rec, ok := b.catalog.Lookup(id); ok {
		out = rec.OutputID()
	}
	b.items[id] = &Item{ID: id, OutputID: out, Family: family, DateKey: date, Mechanism: mech}
	b.state = StatePopulated
	return true, nil
}

// Contains reports whether id is already in any partition.
func (b *Builder) Contains(id scene.ID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.items[id]
	return ok
}

// Len returns the number of accumulated scenes.
func (b *Builder) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// State returns the lifecycle state.
func (b *Builder) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// FindMissing adds every catalog scene that is not yet listed, not held
// locally and not excluded. The added identifiers are returned in catalog
// order.
func (b *Builder) FindMissing() ([]scene.ID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateFrozen {
		return nil, &FrozenListError{Op: "find missing"}
	}

	var added []scene.ID
	for _, rec := range b.catalog.Records() {
		if b.holdings.Covers(rec.ID.String()) || b.exclusions.ExcludesRecord(rec) {
			continue
		}
		ok, err := b.insert(rec.ID, rec.Family(), rec.DateKey(), MechanismMissing)
		if err != nil {
			return added, err
		}
		if ok {
			util.DebugLog("Adding %s to %s processing list", rec.ID, rec.Family())
			added = append(added, rec.ID)
		}
	}
	return added, nil
}

// Lists is the emitted, frozen result.
type Lists struct {
	L47 []Item
	L8  []Item
}

// Family returns the items of one family.
func (l *Lists) Family(f scene.Family) []Item {
	switch f {
	case scene.FamilyL47:
		return l.L47
	case scene.FamilyL8:
		return l.L8
	}
	return nil
}

// OutputIDs returns the product identifiers of one family, in list order.
func (l *Lists) OutputIDs(f scene.Family) []string {
	items := l.Family(f)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.OutputID
	}
	return out
}

// Merged returns every product identifier, L47 before L8.
func (l *Lists) Merged() []string {
	var out []string
	for _, f := range scene.Families {
		out = append(out, l.OutputIDs(f)...)
	}
	return out
}

// Len returns the total number of items.
func (l *Lists) Len() int {
	return len(l.L47) + len(l.L8)
}

// Emit freezes the builder and returns each family sorted by date, then
// scene identifier.
func (b *Builder) Emit() (*Lists, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateFrozen {
		return nil, &FrozenListError{Op: "emit"}
	}

	lists := &Lists{}
	for _, it := range b.items {
		switch it.Family {
		case scene.FamilyL47:
			lists.L47 = append(lists.L47, *it)
		case scene.FamilyL8:
			lists.L8 = append(lists.L8, *it)
		}
	}
	sortItems(lists.L47)
	sortItems(lists.L8)

	b.state = StateFrozen
	return lists, nil
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.DateKey != b.DateKey {
			return a.DateKey.Less(b.DateKey)
		}
		return a.ID.String() < b.ID.String()
	})
}
