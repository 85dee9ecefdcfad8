package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteMarkdownReport(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "reports", "summary.md")

	report := &SummaryReport{
		RunID:            "0b7e",
		GeneratedAt:      time.Now(),
		Duration:         1500 * time.Millisecond,
		CatalogScenes:    12500,
		FeedSkipped:      3,
		HeldScenes:       400,
		GridPaths:        5,
		ExclusionVersion: "2017.1",
		Accepted:         40,
		Neighbors:        12,
		Missing:          1200,
		Rejected:         map[string]int{"cloud cover": 9000, "locally held": 400, "excluded date": 9000},
		Families:         []FamilyCount{{"L47", 900}, {"L8", 352}},
		OutputFiles:      []string{"/out/ESPA_L47_list.txt", "/out/ESPA_L8_list.txt"},
	}

	if err := WriteMarkdownReport(report, outputPath); err != nil {
		t.Fatalf("WriteMarkdownReport failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	md := string(content)

	for _, want := range []string{
		"# Scene List Summary",
		"| Catalog scenes | 12,500 |",
		"| Malformed records skipped | 3 |",
		"| Missing recovered | 1,200 |",
		"| L8 | 352 |",
		"`/out/ESPA_L8_list.txt`",
		"*Completed in 1.5s*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Report missing %q", want)
		}
	}

	// Ties in rejection counts are ordered by reason.
	cloud := strings.Index(md, "| cloud cover |")
	excluded := strings.Index(md, "| excluded date |")
	held := strings.Index(md, "| locally held |")
	if !(cloud < excluded && excluded < held) {
		t.Errorf("Rejections not ordered by count then reason:\n%s", md)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	md := RenderMarkdown(&SummaryReport{GeneratedAt: time.Now()})
	if !strings.Contains(md, "Nothing to process.") {
		t.Errorf("Expected empty-run message, got:\n%s", md)
	}
	if strings.Contains(md, "## Rejections") {
		t.Error("Rejections section should be omitted when empty")
	}
}
