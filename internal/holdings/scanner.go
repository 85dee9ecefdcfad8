package holdings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

// DefaultProjection is the local projection acronym used in artifact names.
const DefaultProjection = "ITM"

// Config controls how locally held artifacts are enumerated.
type Config struct {
	// Dirs are searched non-recursively. Missing directories are skipped.
	Dirs []string
	// Pattern is a filepath.Match pattern on basenames.
	Pattern string
	// Progress enables the progress bar when stderr is a terminal.
	Progress bool
}

// DefaultConfig returns the surface reflectance layout: <srdir> and
// <srdir>/L1G holding L*_ref_<projection>.dat files.
func DefaultConfig(srDir, projection string) Config {
	if projection == "" {
		projection = DefaultProjection
	}
	return Config{
		Dirs:     []string{srDir, filepath.Join(srDir, "L1G")},
		Pattern:  fmt.Sprintf("L*_ref_%s.dat", projection),
		Progress: true,
	}
}

// ScanResult summarises a holdings scan.
type ScanResult struct {
	Matched    int
	Unparsable int
	Errors     []error
}

// Scan enumerates the configured directories once and returns the snapshot.
func Scan(ctx context.Context, cfg Config) (*Index, *ScanResult, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = "L*"
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, nil, util.NewConfigError("holdings pattern", "%v", err)
	}

	result := &ScanResult{}
	var names []string
	for _, dir := range cfg.Dirs {
		entries, err := readDir(ctx, dir)
		if errors.Is(err, fs.ErrNotExist) {
			util.DebugLog("Holdings directory %s does not exist, skipping", dir)
			continue
		}
		if err != nil {
			util.WarnLog("Error reading %s: %v", dir, err)
			result.Errors = append(result.Errors, fmt.Errorf("read %s: %w", dir, err))
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ok, _ := filepath.Match(cfg.Pattern, e.Name()); ok {
				names = append(names, e.Name())
			}
		}
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress && util.StderrIsTerminal() && !util.IsQuiet() && len(names) > 0 {
		bar = progressbar.NewOptions(len(names),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Indexing holdings"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	prefixes := make([]string, 0, len(names))
	for i, name := range names {
		if i%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, result, ctx.Err()
			default:
			}
		}

		id, err := scene.ParseProductName(name)
		if err != nil {
			util.DebugLog("Ignoring %s: %v", name, err)
			result.Unparsable++
		} else {
			prefixes = append(prefixes, id.Prefix())
			result.Matched++
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	idx := New(prefixes)
	util.InfoLog("Indexed %d local scenes (%d files, %d unrecognised)", idx.Len(), len(names), result.Unparsable)
	return idx, result, nil
}

// readDir lists dir, retrying transient failures of network mounts.
func readDir(ctx context.Context, dir string) ([]os.DirEntry, error) {
	mount := util.DetectMount(dir)
	if !mount.Shared {
		return os.ReadDir(dir)
	}
	util.DebugLog("Holdings directory %s is on a %s mount", dir, mount.FSType)

	var entries []os.DirEntry
	err := util.Retry(ctx, nil, "list "+dir, func() error {
		var err error
		entries, err = os.ReadDir(dir)
		return err
	})
	return entries, err
}
