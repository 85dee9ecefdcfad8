package output

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/franz/scenelist/internal/proclist"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

func testLists() *proclist.Lists {
	item := func(id, out string) proclist.Item {
		sid := scene.MustParse(id)
		return proclist.Item{ID: sid, OutputID: out, Family: sid.Family(), DateKey: sid.DateKey()}
	}
	return &proclist.Lists{
		L47: []proclist.Item{item("LE71000212020001EDC00", "LE07_L1TP_100021_20200101_20200127_01_T1")},
		L8: []proclist.Item{
			item("LC81000202020001LGN00", "LC81000202020001LGN00"),
			item("LC81000212020005LGN00", "LC08_L1TP_100021_20200105_20200113_01_T1"),
		},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestWriteTextMerged(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteText(dir, testLists(), Options{Stamp: "20240301-120000"})
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 {
		t.Fatalf("expected one merged file, got %+v", written)
	}
	if filepath.Base(written[0].Path) != "ESPA_list20240301-120000.txt" {
		t.Errorf("unexpected file name %s", written[0].Path)
	}

	lines := readLines(t, written[0].Path)
	want := []string{
		"LE07_L1TP_100021_20200101_20200127_01_T1",
		"LC81000202020001LGN00",
		"LC08_L1TP_100021_20200105_20200113_01_T1",
	}
	if strings.Join(lines, ",") != strings.Join(want, ",") {
		t.Errorf("merged list = %v, want %v", lines, want)
	}
}

func TestWriteTextSeparate(t *testing.T) {
	dir := t.TempDir()
	lists := testLists()
	lists.L47 = nil

	written, err := WriteText(dir, lists, Options{Separate: true, Stamp: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || written[0].Family != "L8" || written[0].Count != 2 {
		t.Fatalf("expected only the L8 list, got %+v", written)
	}
	if _, err := os.Stat(filepath.Join(dir, "ESPA_L47_listx.txt")); !os.IsNotExist(err) {
		t.Errorf("empty L47 list should not be written")
	}
}

func TestWriteTextEmpty(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteText(dir, &proclist.Lists{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 0 {
		t.Errorf("expected no files, got %+v", written)
	}
}

func TestWriteTextLocked(t *testing.T) {
	dir := t.TempDir()
	other := flock.New(filepath.Join(dir, lockName))
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer other.Unlock()

	_, err := WriteText(dir, testLists(), Options{Stamp: "x"})
	if !errors.Is(err, util.ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ESPA_listx.txt")); !os.IsNotExist(err) {
		t.Errorf("no list should be written while locked")
	}
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	links := []Link{
		{SceneID: "LE72070232020001ASN00", URL: "https://example.invalid/b?x=1&y=2"},
		{SceneID: "LC82070232020001LGN00", URL: ""},
		{SceneID: "LC82070222020001LGN00", URL: "https://example.invalid/a"},
	}

	w, err := WriteHTML(dir, links, HTMLOptions{LoginURL: DefaultLoginURL, Stamp: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if w == nil || w.Count != 2 {
		t.Fatalf("expected two links, got %+v", w)
	}

	data, err := os.ReadFile(w.Path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	a := strings.Index(page, "LC82070222020001LGN00")
	b := strings.Index(page, "LE72070232020001ASN00")
	if a < 0 || b < 0 || a > b {
		t.Errorf("links missing or out of order:\n%s", page)
	}
	if strings.Contains(page, "LC82070232020001LGN00") {
		t.Error("link without URL should be dropped")
	}
	if !strings.Contains(page, "x=1&amp;y=2") {
		t.Errorf("URL not escaped:\n%s", page)
	}
	if !strings.Contains(page, DefaultLoginURL) {
		t.Error("login link missing")
	}
}

func TestWriteHTMLEmpty(t *testing.T) {
	w, err := WriteHTML(t.TempDir(), []Link{{SceneID: "LC82070232020001LGN00"}}, HTMLOptions{})
	if err != nil || w != nil {
		t.Errorf("expected nothing written, got %+v, %v", w, err)
	}
}
