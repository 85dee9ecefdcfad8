package proclist

import (
	"errors"
	"slices"
	"testing"

	"github.com/franz/scenelist/internal/catalog"
	"github.com/franz/scenelist/internal/exclude"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

func record(id, product string) *scene.Record {
	sid := scene.MustParse(id)
	return &scene.Record{ID: sid, Path: sid.Path, Row: sid.Row, ProductID: product}
}

func testCatalog() *catalog.Catalog {
	return catalog.Ingest([]*scene.Record{
		record("LC81000212020005LGN00", "LC08_L1TP_100021_20200105_20200113_01_T1"),
		record("LC81000202020001LGN00", ""),
		record("LE71000212020001EDC00", "LE07_L1TP_100021_20200101_20200127_01_T1"),
		record("LT51000211999100XXX01", ""),
		// held locally
		record("LC81100022020001LGN00", ""),
		// excluded acquisition window
		record("LC81000212015040LGN00", ""),
	}, nil)
}

func add(t *testing.T, b *Builder, id string, mech Mechanism) bool {
	t.Helper()
	sid := scene.MustParse(id)
	ok, err := b.AddAccepted(sid, sid.Family(), sid.DateKey(), mech)
	if err != nil {
		t.Fatalf("AddAccepted(%s): %v", id, err)
	}
	return ok
}

func TestAddAcceptedIdempotent(t *testing.T) {
	b := New(testCatalog(), exclude.Default(), holdings.New(nil))
	if b.State() != StateEmpty {
		t.Fatalf("expected empty state, got %s", b.State())
	}
	if !add(t, b, "LC81000202020001LGN00", MechanismDirect) {
		t.Error("first insert should report new")
	}
	if add(t, b, "LC81000202020001LGN00", MechanismNeighbor) {
		t.Error("second insert should report existing")
	}
	if b.Len() != 1 || b.State() != StatePopulated {
		t.Errorf("expected one populated entry, got %d (%s)", b.Len(), b.State())
	}

	lists, err := b.Emit()
	if err != nil {
		t.Fatal(err)
	}
	if lists.L8[0].Mechanism != MechanismDirect {
		t.Errorf("mechanism should be the first one recorded, got %s", lists.L8[0].Mechanism)
	}
}

func TestFindMissingDisjoint(t *testing.T) {
	b := New(testCatalog(), exclude.Default(), holdings.New([]string{"LC8110002"}))
	add(t, b, "LC81000212020005LGN00", MechanismDirect)

	added, err := b.FindMissing()
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(added))
	for i, id := range added {
		got[i] = id.String()
	}
	want := []string{"LC81000202020001LGN00", "LE71000212020001EDC00", "LT51000211999100XXX01"}
	if !slices.Equal(got, want) {
		t.Errorf("FindMissing() = %v, want %v", got, want)
	}

	lists, err := b.Emit()
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range append(lists.L47, lists.L8...) {
		switch it.ID.String() {
		case "LC81000212020005LGN00":
			if it.Mechanism != MechanismDirect {
				t.Errorf("%s added by %s, want direct", it.ID, it.Mechanism)
			}
		default:
			if it.Mechanism != MechanismMissing {
				t.Errorf("%s added by %s, want missing", it.ID, it.Mechanism)
			}
		}
	}
}

func TestEmitOrderAndOutputIDs(t *testing.T) {
	b := New(testCatalog(), exclude.Default(), holdings.New([]string{"LC8110002"}))
	if _, err := b.FindMissing(); err != nil {
		t.Fatal(err)
	}
	lists, err := b.Emit()
	if err != nil {
		t.Fatal(err)
	}

	wantL8 := []string{"LC81000202020001LGN00", "LC08_L1TP_100021_20200105_20200113_01_T1"}
	if got := lists.OutputIDs(scene.FamilyL8); !slices.Equal(got, wantL8) {
		t.Errorf("L8 = %v, want %v", got, wantL8)
	}
	wantL47 := []string{"LT51000211999100XXX01", "LE07_L1TP_100021_20200101_20200127_01_T1"}
	if got := lists.OutputIDs(scene.FamilyL47); !slices.Equal(got, wantL47) {
		t.Errorf("L47 = %v, want %v", got, wantL47)
	}
	if got := lists.Merged(); !slices.Equal(got, append(wantL47, wantL8...)) {
		t.Errorf("Merged() = %v", got)
	}
}

func TestNeverEmitsHeldOrExcluded(t *testing.T) {
	b := New(testCatalog(), exclude.Default(), holdings.New([]string{"LC8110002"}))
	if _, err := b.FindMissing(); err != nil {
		t.Fatal(err)
	}
	lists, _ := b.Emit()
	for _, id := range lists.Merged() {
		if id == "LC81100022020001LGN00" || id == "LC81000212015040LGN00" {
			t.Errorf("emitted %s", id)
		}
	}
}

func TestFrozenAfterEmit(t *testing.T) {
	b := New(testCatalog(), nil, nil)
	add(t, b, "LC81000202020001LGN00", MechanismDirect)
	if _, err := b.Emit(); err != nil {
		t.Fatal(err)
	}

	sid := scene.MustParse("LE71000212020001EDC00")
	_, err := b.AddAccepted(sid, sid.Family(), sid.DateKey(), MechanismDirect)
	if !errors.Is(err, util.ErrFrozen) {
		t.Errorf("AddAccepted after emit: expected ErrFrozen, got %v", err)
	}
	var frozen *FrozenListError
	if _, err := b.FindMissing(); !errors.As(err, &frozen) {
		t.Errorf("FindMissing after emit: expected FrozenListError, got %v", err)
	}
	if _, err := b.Emit(); !errors.Is(err, util.ErrFrozen) {
		t.Errorf("second Emit: expected ErrFrozen, got %v", err)
	}
	if !b.Contains(scene.MustParse("LC81000202020001LGN00")) {
		t.Error("frozen list should still answer Contains")
	}
}

func TestEmitDeterministic(t *testing.T) {
	run := func() []string {
		b := New(testCatalog(), exclude.Default(), nil)
		add(t, b, "LE71000212020001EDC00", MechanismDirect)
		if _, err := b.FindMissing(); err != nil {
			t.Fatal(err)
		}
		lists, err := b.Emit()
		if err != nil {
			t.Fatal(err)
		}
		return lists.Merged()
	}
	first := run()
	for i := 0; i < 5; i++ {
		if got := run(); !slices.Equal(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}
