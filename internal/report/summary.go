package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// SummaryReport describes one list-building run
type SummaryReport struct {
	RunID       string
	GeneratedAt time.Time
	Duration    time.Duration

	// Inputs
	CatalogScenes    int
	FeedSkipped      int
	FeedConflicts    int
	HeldScenes       int
	GridPaths        int
	ExclusionVersion string

	// Selection
	Accepted  int
	Neighbors int
	Missing   int
	Gaps      int
	Rejected  map[string]int

	// Output
	Families    []FamilyCount
	OutputFiles []string

	DatabasePath string
	EventLogPath string
}

// FamilyCount is the size of one emitted list
type FamilyCount struct {
	Family string
	Count  int
}

// Total returns the number of scenes across all lists
func (r *SummaryReport) Total() int {
	n := 0
	for _, f := range r.Families {
		n += f.Count
	}
	return n
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// RenderMarkdown formats the summary report
func RenderMarkdown(report *SummaryReport) string {
	var md strings.Builder

	md.WriteString("# Scene List Summary\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", report.RunID))
	}
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}
	md.WriteString("---\n\n")

	md.WriteString("## Inputs\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Catalog scenes | %s |\n", humanize.Comma(int64(report.CatalogScenes))))
	if report.FeedSkipped > 0 {
		md.WriteString(fmt.Sprintf("| Malformed records skipped | %s |\n", humanize.Comma(int64(report.FeedSkipped))))
	}
	if report.FeedConflicts > 0 {
		md.WriteString(fmt.Sprintf("| Duplicate id conflicts | %s |\n", humanize.Comma(int64(report.FeedConflicts))))
	}
	md.WriteString(fmt.Sprintf("| Locally held scenes | %s |\n", humanize.Comma(int64(report.HeldScenes))))
	md.WriteString(fmt.Sprintf("| Grid paths | %d |\n", report.GridPaths))
	if report.ExclusionVersion != "" {
		md.WriteString(fmt.Sprintf("| Exclusion table | %s |\n", report.ExclusionVersion))
	}
	md.WriteString("\n")

	md.WriteString("## Selection\n\n")
	md.WriteString("| Mechanism | Scenes |\n")
	md.WriteString("|-----------|--------|\n")
	md.WriteString(fmt.Sprintf("| Accepted by criteria | %s |\n", humanize.Comma(int64(report.Accepted))))
	md.WriteString(fmt.Sprintf("| Path completion | %s |\n", humanize.Comma(int64(report.Neighbors))))
	md.WriteString(fmt.Sprintf("| Missing recovered | %s |\n", humanize.Comma(int64(report.Missing))))
	if report.Gaps > 0 {
		md.WriteString(fmt.Sprintf("| Path rows without a scene | %s |\n", humanize.Comma(int64(report.Gaps))))
	}
	md.WriteString("\n")

	if len(report.Rejected) > 0 {
		reasons := make([]string, 0, len(report.Rejected))
		for reason := range report.Rejected {
			reasons = append(reasons, reason)
		}
		sort.Slice(reasons, func(i, j int) bool {
			if report.Rejected[reasons[i]] != report.Rejected[reasons[j]] {
				return report.Rejected[reasons[i]] > report.Rejected[reasons[j]]
			}
			return reasons[i] < reasons[j]
		})

		md.WriteString("## Rejections\n\n")
		md.WriteString("| Count | Reason |\n")
		md.WriteString("|-------|--------|\n")
		for _, reason := range reasons {
			md.WriteString(fmt.Sprintf("| %s | %s |\n", humanize.Comma(int64(report.Rejected[reason])), reason))
		}
		md.WriteString("\n")
	}

	md.WriteString("## Output\n\n")
	if report.Total() == 0 {
		md.WriteString("Nothing to process.\n\n")
	} else {
		md.WriteString("| Family | Scenes |\n")
		md.WriteString("|--------|--------|\n")
		for _, f := range report.Families {
			md.WriteString(fmt.Sprintf("| %s | %s |\n", f.Family, humanize.Comma(int64(f.Count))))
		}
		md.WriteString("\n")
		for _, path := range report.OutputFiles {
			md.WriteString(fmt.Sprintf("- `%s`\n", path))
		}
		if len(report.OutputFiles) > 0 {
			md.WriteString("\n")
		}
	}

	if report.Duration > 0 {
		md.WriteString(fmt.Sprintf("*Completed in %s*\n", report.Duration.Round(time.Millisecond)))
	}
	return md.String()
}
