package tilegrid

import (
	"errors"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/franz/scenelist/internal/util"
)

func TestBuildRowsStrictlyIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		var cells []Cell
		for i := 0; i < 40; i++ {
			cells = append(cells, Cell{Path: 200 + rng.Intn(5), Row: 20 + rng.Intn(6)})
		}
		g, err := Build(cells)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		for _, p := range g.Paths() {
			rows, _ := g.RowsFor(p)
			for i := 1; i < len(rows); i++ {
				if rows[i] <= rows[i-1] {
					t.Fatalf("path %d rows not strictly increasing: %v", p, rows)
				}
			}
		}
	}
}

func TestRowsForAndBounds(t *testing.T) {
	g, err := Build([]Cell{{100, 23}, {100, 21}, {100, 20}, {100, 22}, {100, 21}, {101, 5}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	rows, err := g.RowsFor(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(rows, []int{20, 21, 22, 23}) {
		t.Errorf("unexpected rows %v", rows)
	}

	rows[0] = 99
	again, _ := g.RowsFor(100)
	if again[0] != 20 {
		t.Error("RowsFor must not expose internal state")
	}

	if lo, _ := g.MinRow(100); lo != 20 {
		t.Errorf("expected min 20, got %d", lo)
	}
	if hi, _ := g.MaxRow(100); hi != 23 {
		t.Errorf("expected max 23, got %d", hi)
	}
	if !g.Contains(101, 5) || g.Contains(101, 6) {
		t.Error("Contains gave wrong answer")
	}

	_, err = g.RowsFor(7)
	var unknown *UnknownPathError
	if !errors.As(err, &unknown) || unknown.Path != 7 {
		t.Fatalf("expected UnknownPathError for path 7, got %v", err)
	}
	if !errors.Is(err, util.ErrNotFound) {
		t.Error("UnknownPathError should unwrap to ErrNotFound")
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected config error for empty grid, got %v", err)
	}
	if _, err := Build([]Cell{{0, 3}}); !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected config error for path 0, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	cells, err := ReadCSV(strings.NewReader("path,row\n207,22\n207, 23\n208,21\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 3 || cells[1] != (Cell{207, 23}) {
		t.Errorf("unexpected cells %v", cells)
	}

	if _, err := ReadCSV(strings.NewReader("207,x\n")); !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestDecodeTOML(t *testing.T) {
	data := []byte(`
[paths]
207 = [24, 22, 23]

[[cell]]
path = 205
row = 21
`)
	cells, err := DecodeTOML(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := Build(cells)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if lo, _ := g.MinRow(207); lo != 22 {
		t.Errorf("expected min row 22, got %d", lo)
	}
	if !g.Contains(205, 21) {
		t.Error("expected cell 205/21 from [[cell]] table")
	}
}
