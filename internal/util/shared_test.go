package util

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
)

const sampleMounts = `sysfs /sys sysfs rw,nosuid 0 0
/dev/sda1 / ext4 rw,relatime 0 0
nas:/export/landsat /data/landsat nfs4 rw,vers=4.2 0 0
//srv/share /data/landsatx cifs rw 0 0
tmpfs /data/landsat/tmp tmpfs rw 0 0
`

func TestMatchMount(t *testing.T) {
	mounts, err := parseMounts(strings.NewReader(sampleMounts))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path   string
		mount  string
		shared bool
	}{
		{"/home/user/scenes.csv", "/", false},
		{"/data/landsat/SR/L1G", "/data/landsat", true},
		{"/data/landsat", "/data/landsat", true},
		{"/data/landsatx/feed.csv", "/data/landsatx", true},
		{"/data/landsat/tmp/x", "/data/landsat/tmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := matchMount(tt.path, mounts)
			if got.MountPoint != tt.mount || got.Shared != tt.shared {
				t.Errorf("matchMount(%s) = %+v, want mount %s shared=%v", tt.path, got, tt.mount, tt.shared)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&os.PathError{Op: "open", Path: "/x", Err: syscall.EIO}, true},
		{fmt.Errorf("read feed: %w", syscall.ESTALE), true},
		{&os.PathError{Op: "open", Path: "/x", Err: syscall.ENOENT}, false},
		{errors.New("timeout"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetry(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}

	calls := 0
	err := Retry(context.Background(), cfg, "flaky", func() error {
		calls++
		if calls < 3 {
			return syscall.EAGAIN
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("expected success on third call, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(context.Background(), cfg, "missing", func() error {
		calls++
		return os.ErrNotExist
	})
	if !errors.Is(err, os.ErrNotExist) || calls != 1 {
		t.Errorf("permanent error should not be retried, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(context.Background(), cfg, "down", func() error {
		calls++
		return syscall.EIO
	})
	if !errors.Is(err, syscall.EIO) || calls != 3 {
		t.Errorf("expected exhausted retries wrapping EIO, got err=%v calls=%d", err, calls)
	}
}
