// Package output writes processing lists and download pages.
package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/franz/scenelist/internal/proclist"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// StampLayout formats the timestamp embedded in file names.
const StampLayout = "20060102-150405"

const lockName = ".scenelist.lock"

// Options control list file naming.
type Options struct {
	Separate bool   // one file per family instead of a merged list
	Stamp    string // file name timestamp, defaults to now
}

func (o *Options) stamp() string {
	if o.Stamp != "" {
		return o.Stamp
	}
	return time.Now().Format(StampLayout)
}

// Written is one file produced by a writer.
type Written struct {
	Family string // "" for merged lists and pages
	Path   string
	Count  int
}

// WriteText writes processing lists into dir, one product identifier per
// line. Empty lists produce no file.
func WriteText(dir string, lists *proclist.Lists, opts Options) ([]Written, error) {
	stamp := opts.stamp()

	type job struct {
		family string
		name   string
		ids    []string
	}
	var jobs []job
	if opts.Separate {
		jobs = append(jobs,
			job{scene.FamilyL8.String(), fmt.Sprintf("ESPA_L8_list%s.txt", stamp), lists.OutputIDs(scene.FamilyL8)},
			job{scene.FamilyL47.String(), fmt.Sprintf("ESPA_L47_list%s.txt", stamp), lists.OutputIDs(scene.FamilyL47)},
		)
	} else {
		jobs = append(jobs, job{"", fmt.Sprintf("ESPA_list%s.txt", stamp), lists.Merged()})
	}

	var written []Written
	err := withLock(dir, func() error {
		for _, j := range jobs {
			if len(j.ids) == 0 {
				util.DebugLog("No scenes for %s, skipping", j.name)
				continue
			}
			path := filepath.Join(dir, j.name)
			if err := writeLines(path, j.ids); err != nil {
				return err
			}
			written = append(written, Written{Family: j.family, Path: path, Count: len(j.ids)})
		}
		return nil
	})
	return written, err
}

// withLock creates dir and holds an exclusive lock on it while fn runs.
func withLock(dir string, fn func() error) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", dir, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", util.ErrLocked, dir)
	}
	defer lock.Unlock()

	return fn()
}

// writeLines writes through a temporary file so readers never see a
// partial list.
func writeLines(path string, lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
