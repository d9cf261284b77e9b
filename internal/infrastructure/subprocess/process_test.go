package subprocess

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/config"
	"github.com/dominicbrandes/aztec-exchange/internal/metrics"
)

// loopScript is a stand-in engine: one canned envelope per request line,
// exiting cleanly on shutdown like the real binary.
const loopScript = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    *'"cmd":"shutdown"'*) printf '%s\n' '{"success":true,"data":{"status":"shutting_down"},"req_id":"r"}'; exit 0 ;;
    *'"cmd":"health"'*) printf '%s\n' '{"success":true,"data":{"status":"healthy","timestamp_ns":1700000000000000000},"req_id":"r"}' ;;
    *) printf '%s\n' '{"success":true,"data":{},"req_id":"r"}' ;;
  esac
done
`

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine script needs a POSIX shell")
	}
}

func fakeEngineConfig(t *testing.T, script string) config.EngineConfig {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return config.EngineConfig{
		Path:         path,
		DataDir:      filepath.Join(dir, "data"),
		EventLogPath: filepath.Join(dir, "data", "events.jsonl"),
		SnapshotDir:  filepath.Join(dir, "data", "snapshots"),
	}
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestStart_MissingBinary(t *testing.T) {
	m := metrics.New()

	t.Run("unset path", func(t *testing.T) {
		p := NewProcess(config.EngineConfig{DataDir: t.TempDir()}, m, zap.NewNop())
		err := p.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ENGINE_PATH")
	})

	t.Run("nonexistent path", func(t *testing.T) {
		dir := t.TempDir()
		p := NewProcess(config.EngineConfig{
			Path:         filepath.Join(dir, "missing", "exchange_engine"),
			DataDir:      filepath.Join(dir, "data"),
			EventLogPath: filepath.Join(dir, "data", "events.jsonl"),
			SnapshotDir:  filepath.Join(dir, "data", "snapshots"),
		}, m, zap.NewNop())
		require.Error(t, p.Start(context.Background()))
	})
}

func TestProcess_Lifecycle(t *testing.T) {
	requirePOSIX(t)

	m := metrics.New()
	cfg := fakeEngineConfig(t, loopScript)
	p := NewProcess(cfg, m, zap.NewNop())
	client := NewClient(p, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() { p.Stop(ctx) })

	assert.True(t, p.Alive())
	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, cfg.SnapshotDir)
	assert.Contains(t, scrape(t, m), "engine_connected 1")

	env, err := client.Health(ctx)
	require.NoError(t, err)
	assert.True(t, env.Success)

	p.Stop(ctx)
	assert.False(t, p.Alive())
	assert.Contains(t, scrape(t, m), "engine_connected 0")

	// Stop is idempotent in every state.
	p.Stop(ctx)
	assert.False(t, p.Alive())

	_, err = client.Health(ctx)
	require.Error(t, err)
	assert.Equal(t, "engine process already exited", err.Error())
}

func TestProcess_StartRejectsSecondInstance(t *testing.T) {
	requirePOSIX(t)

	m := metrics.New()
	p := NewProcess(fakeEngineConfig(t, loopScript), m, zap.NewNop())
	NewClient(p, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() { p.Stop(ctx) })

	err := p.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestProcess_CrashDetection(t *testing.T) {
	requirePOSIX(t)

	m := metrics.New()
	p := NewProcess(fakeEngineConfig(t, "#!/bin/sh\nexit 7\n"), m, zap.NewNop())
	client := NewClient(p, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() { p.Stop(ctx) })

	require.Eventually(t, func() bool { return !p.Alive() }, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, scrape(t, m), "engine_connected 0")

	_, err := client.Health(ctx)
	require.Error(t, err)
	assert.Equal(t, "engine process already exited", err.Error())
}

func TestStop_NeverStarted(t *testing.T) {
	p := NewProcess(config.EngineConfig{}, metrics.New(), zap.NewNop())

	p.Stop(context.Background())
	p.Stop(context.Background())
	assert.False(t, p.Alive())
}

func TestStop_EngineIgnoresShutdown(t *testing.T) {
	requirePOSIX(t)

	m := metrics.New()
	p := NewProcess(fakeEngineConfig(t, "#!/bin/sh\nexec sleep 30\n"), m, zap.NewNop())
	NewClient(p, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() { p.Stop(ctx) })
	assert.True(t, p.Alive())

	start := time.Now()
	p.Stop(ctx)
	assert.False(t, p.Alive())
	assert.Less(t, time.Since(start), exitWait+gracefulWait,
		"stop should terminate a deaf engine well inside its bounds")
}
