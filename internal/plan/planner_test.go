package plan

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/franz/scenelist/internal/catalog"
	"github.com/franz/scenelist/internal/exclude"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/selection"
	"github.com/franz/scenelist/internal/tilegrid"
	"github.com/franz/scenelist/internal/util"
)

func rec(id string, cloud float64) *scene.Record {
	sid := scene.MustParse(id)
	return &scene.Record{
		ID:         sid,
		Path:       sid.Path,
		Row:        sid.Row,
		Instrument: "OLI_TIRS",
		CloudCover: scene.Float(cloud),
		Acquired:   sid.DateKey().Time(),
	}
}

func testGrid(t *testing.T) *tilegrid.Grid {
	t.Helper()
	g, err := tilegrid.Build([]tilegrid.Cell{
		{Path: 100, Row: 20}, {Path: 100, Row: 21}, {Path: 100, Row: 22}, {Path: 100, Row: 23},
		{Path: 101, Row: 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func testInputs(t *testing.T) Inputs {
	excl := rec("LC81000232020001LGN00", 1)
	excl.Instrument = "OLI"
	cat := catalog.Ingest([]*scene.Record{
		rec("LC81000212020001LGN00", 5),
		rec("LC81000202020001LGN00", 80), // cloudy, only reachable as a neighbor
		excl,
		rec("LC81010202020009LGN00", 90), // cloudy, unrelated path
		rec("LC81100022020001LGN00", 0),  // held
	}, nil)

	return Inputs{
		Catalog:    cat,
		Grid:       testGrid(t),
		Exclusions: exclude.Default(),
		Holdings:   holdings.New([]string{"LC8110002"}),
		Criteria:   selection.Criteria{MaxCloud: scene.Float(20)},
	}
}

func TestRunDirectOnly(t *testing.T) {
	res, err := New(nil).Run(context.Background(), testInputs(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Lists.Merged(); !slices.Equal(got, []string{"LC81000212020001LGN00"}) {
		t.Errorf("Merged() = %v", got)
	}
	if res.Accepted != 1 || res.Neighbors != 0 || res.Missing != 0 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if res.Rejected[selection.ReasonCloud] != 2 || res.Rejected[selection.ReasonHeld] != 1 ||
		res.Rejected[selection.ReasonExcluded] != 1 {
		t.Errorf("unexpected rejections: %v", res.Rejected)
	}
}

func TestRunAllInPath(t *testing.T) {
	in := testInputs(t)
	in.AllInPath = true

	res, err := New(&Config{Workers: 4}).Run(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"LC81000202020001LGN00", "LC81000212020001LGN00", "LC81010202020009LGN00"}
	if got := res.Lists.Merged(); !slices.Equal(got, want) {
		t.Errorf("Merged() = %v, want %v", got, want)
	}
	if res.Accepted != 1 || res.Neighbors != 1 || res.Missing != 1 {
		t.Errorf("unexpected counts: accepted=%d neighbors=%d missing=%d", res.Accepted, res.Neighbors, res.Missing)
	}
	if res.Gaps != 1 {
		t.Errorf("expected one gap (row 22), got %d", res.Gaps)
	}
	for _, id := range res.Lists.Merged() {
		if id == "LC81100022020001LGN00" || id == "LC81000232020001LGN00" {
			t.Errorf("held or excluded scene %s emitted", id)
		}
	}
}

func TestRunLastIngestedWins(t *testing.T) {
	tests := []struct {
		name   string
		clouds []float64
		want   int
	}{
		{"later record clear", []float64{90, 5}, 1},
		{"later record cloudy", []float64{5, 90}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []*scene.Record
			for _, c := range tt.clouds {
				records = append(records, rec("LC81000212020001LGN00", c))
			}
			in := Inputs{
				Catalog:  catalog.Ingest(records, nil),
				Criteria: selection.Criteria{MaxCloud: scene.Float(10)},
			}
			res, err := New(nil).Run(context.Background(), in)
			if err != nil {
				t.Fatal(err)
			}
			if res.Lists.Len() != tt.want {
				t.Errorf("expected %d scenes, got %d", tt.want, res.Lists.Len())
			}
		})
	}
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"half doy range", func(in *Inputs) { in.Criteria.StartDOY = 100 }},
		{"row without path", func(in *Inputs) { in.Criteria.Row = 21 }},
		{"no grid", func(in *Inputs) { in.AllInPath = true; in.Grid = nil }},
		{"no catalog", func(in *Inputs) { in.Catalog = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInputs(t)
			tt.mutate(&in)
			res, err := New(nil).Run(context.Background(), in)
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if res != nil {
				t.Errorf("expected no result on configuration error, got %+v", res)
			}
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	var first []string
	for _, workers := range []int{1, 2, 8, 1} {
		in := testInputs(t)
		in.AllInPath = true
		res, err := New(&Config{Workers: workers}).Run(context.Background(), in)
		if err != nil {
			t.Fatal(err)
		}
		got := res.Lists.Merged()
		if first == nil {
			first = got
			continue
		}
		if !slices.Equal(got, first) {
			t.Errorf("workers=%d: %v, want %v", workers, got, first)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := testInputs(t)
	in.AllInPath = true
	if _, err := New(nil).Run(ctx, in); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
