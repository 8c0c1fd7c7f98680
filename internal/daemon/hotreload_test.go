package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg/orientprompt/internal/config"
)

type reloadRecorder struct {
	mu      sync.Mutex
	configs []*config.Config
	errs    []error
	styles  int
}

func (r *reloadRecorder) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs), len(r.errs), r.styles
}

func (r *reloadRecorder) last() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.configs) == 0 {
		return nil
	}
	return r.configs[len(r.configs)-1]
}

func startWatcher(t *testing.T) (*ConfigWatcher, *reloadRecorder, string, string) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "orientprompt.toml")
	stylePath := filepath.Join(dir, "style.css")

	rec := &reloadRecorder{}
	w := NewConfigWatcher(configPath, stylePath, nil)
	w.SetDebounce(20 * time.Millisecond)
	w.SetReloadCallback(func(cfg *config.Config) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.configs = append(rec.configs, cfg)
	})
	w.SetErrorCallback(func(err error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.errs = append(rec.errs, err)
	})
	w.SetStyleCallback(func() {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.styles++
	})

	require.NoError(t, w.Start(context.Background(), config.DefaultConfig()))
	t.Cleanup(w.Stop)

	return w, rec, configPath, stylePath
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	w, rec, configPath, _ := startWatcher(t)

	require.NoError(t, os.WriteFile(configPath, []byte("[prompt]\ntimeout = \"8s\"\n"), 0o644))

	require.Eventually(t, func() bool {
		n, _, _ := rec.counts()
		return n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 8*time.Second, rec.last().Prompt.Timeout.Duration())
	assert.Equal(t, 8*time.Second, w.CurrentConfig().Prompt.Timeout.Duration())
}

func TestConfigWatcher_InvalidConfigKeepsPrevious(t *testing.T) {
	w, rec, configPath, _ := startWatcher(t)
	initial := w.CurrentConfig()

	require.NoError(t, os.WriteFile(configPath, []byte("[prompt]\ntimeout = \"10ms\"\n"), 0o644))

	require.Eventually(t, func() bool {
		_, n, _ := rec.counts()
		return n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	reloads, _, _ := rec.counts()
	assert.Zero(t, reloads)
	assert.Same(t, initial, w.CurrentConfig())
}

func TestConfigWatcher_StyleChange(t *testing.T) {
	_, rec, _, stylePath := startWatcher(t)

	require.NoError(t, os.WriteFile(stylePath, []byte("window { opacity: 0.5; }\n"), 0o644))

	require.Eventually(t, func() bool {
		_, _, n := rec.counts()
		return n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	reloads, errs, _ := rec.counts()
	assert.Zero(t, reloads)
	assert.Zero(t, errs)
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	_, rec, configPath, _ := startWatcher(t)

	dir := filepath.Dir(configPath)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	time.Sleep(100 * time.Millisecond)

	reloads, errs, styles := rec.counts()
	assert.Zero(t, reloads)
	assert.Zero(t, errs)
	assert.Zero(t, styles)
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "absent", "orientprompt.toml"), "", nil)
	assert.Error(t, w.Start(context.Background(), config.DefaultConfig()))
	w.Stop()
}

func TestConfigWatcher_StopIdempotent(t *testing.T) {
	w, _, _, _ := startWatcher(t)
	w.Stop()
	w.Stop()
}
