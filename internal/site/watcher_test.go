package site

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

// startWatch runs Watch on dir and returns the rebuild counter and a stop
// function that waits for the watcher to exit.
func startWatch(t *testing.T, dir string) (*atomic.Int32, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var count atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, testLogger(), func(context.Context) { count.Add(1) })
	}()
	time.Sleep(100 * time.Millisecond)
	return &count, func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}
}

func TestWatch_DebouncesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	count, stop := startWatch(t, dir)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(dir, "note.md"), []byte{byte('a' + i)}, 0o644)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return count.Load() >= 1 }, "no rebuild after writes")
	time.Sleep(2 * DebounceInterval)
	if n := count.Load(); n != 1 {
		t.Errorf("rebuilds = %d, want 1", n)
	}
	stop()
}

func TestWatch_NewDirWatched(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	count, stop := startWatch(t, dir)

	sub := filepath.Join(dir, "research")
	_ = os.MkdirAll(sub, 0o755)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return count.Load() >= 1 }, "no rebuild after mkdir")

	before := count.Load()
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return count.Load() > before }, "file in new subdir did not trigger rebuild")
	stop()
}

func TestWatch_IgnoresHiddenAndNonMarkdown(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	_ = os.MkdirAll(filepath.Join(dir, ".obsidian"), 0o755)
	count, stop := startWatch(t, dir)

	_ = os.WriteFile(filepath.Join(dir, ".obsidian", "workspace.md"), []byte("{}"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, ".vaultsite-tmp-1"), []byte("tmp"), 0o644)
	time.Sleep(3 * DebounceInterval)
	if n := count.Load(); n != 0 {
		t.Errorf("rebuilds = %d, want 0", n)
	}
	stop()
}

func TestWatch_DeleteTriggersRebuild(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "gone.md"), []byte("# Gone"), 0o644)
	count, stop := startWatch(t, dir)

	_ = os.Remove(filepath.Join(dir, "gone.md"))
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return count.Load() >= 1 }, "delete did not trigger rebuild")
	stop()
}

func TestWatch_FolderMovedOutTriggersRebuild(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	_ = os.MkdirAll(filepath.Join(dir, "research"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "research", "a.md"), []byte("# A"), 0o644)
	count, stop := startWatch(t, dir)

	if err := os.Rename(filepath.Join(dir, "research"), filepath.Join(t.TempDir(), "research")); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool { return count.Load() >= 1 }, "moving a folder out did not trigger rebuild")
	stop()
}
