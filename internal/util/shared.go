package util

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// MountInfo describes the filesystem a path lives on.
type MountInfo struct {
	MountPoint string
	FSType     string
	Shared     bool // network filesystem (nfs, cifs, smb, sshfs)
}

var sharedFSTypes = []string{"nfs", "cifs", "smb", "ncpfs", "fuse.sshfs", "fuse.rclone"}

// DetectMount finds the mount holding path using /proc/mounts. Where that
// table is unavailable the path is reported as local.
func DetectMount(path string) MountInfo {
	abs, err := filepath.Abs(path)
	if err != nil {
		return MountInfo{}
	}
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return MountInfo{}
	}
	defer f.Close()

	mounts, err := parseMounts(f)
	if err != nil {
		return MountInfo{}
	}
	return matchMount(abs, mounts)
}

// parseMounts reads "device mountpoint fstype ..." lines.
func parseMounts(r io.Reader) (map[string]string, error) {
	mounts := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts[fields[1]] = fields[2]
	}
	return mounts, scanner.Err()
}

func matchMount(path string, mounts map[string]string) MountInfo {
	var best MountInfo
	for mp, fstype := range mounts {
		if !underMount(path, mp) || len(mp) <= len(best.MountPoint) {
			continue
		}
		best = MountInfo{MountPoint: mp, FSType: fstype}
	}
	lower := strings.ToLower(best.FSType)
	for _, t := range sharedFSTypes {
		if strings.HasPrefix(lower, t) {
			best.Shared = true
			break
		}
	}
	return best
}

func underMount(path, mp string) bool {
	if mp == "/" {
		return true
	}
	return path == mp || strings.HasPrefix(path, mp+"/")
}

// RetryConfig holds backoff settings for shared-mount reads
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration // doubled after each failure
	MaxWait     time.Duration
}

// DefaultRetryConfig suits an archive on a NAS.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 200 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

var transientErrnos = []error{
	syscall.EAGAIN,
	syscall.EIO,
	syscall.ETIMEDOUT,
	syscall.ECONNRESET,
	syscall.ENETDOWN,
	syscall.EHOSTDOWN,
	syscall.ESTALE,
}

// IsTransient reports errors a stalled network mount produces that are
// worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range transientErrnos {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Retry runs op until it succeeds, fails permanently, attempts run out or
// ctx is done.
func Retry(ctx context.Context, cfg *RetryConfig, name string, op func() error) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	wait := cfg.InitialWait

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		DebugLog("Retry: %s failed (attempt %d/%d), retrying in %v: %v", name, attempt, cfg.MaxAttempts, wait, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}

	WarnLog("Retry: %s failed after %d attempts: %v", name, cfg.MaxAttempts, err)
	return fmt.Errorf("max retries exceeded (%d attempts): %w", cfg.MaxAttempts, err)
}

// OpenShared opens a feed file, retrying transient failures when it lives
// on a network mount.
func OpenShared(ctx context.Context, path string) (*os.File, error) {
	if !DetectMount(path).Shared {
		return os.Open(path)
	}
	var f *os.File
	err := Retry(ctx, nil, "open "+path, func() error {
		var err error
		f, err = os.Open(path)
		return err
	})
	return f, err
}
