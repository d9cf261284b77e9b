// Package subprocess runs the matching engine as a child process and speaks
// its newline-delimited JSON protocol over the stdio pipes.
package subprocess

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/config"
	"github.com/dominicbrandes/aztec-exchange/internal/metrics"
)

const (
	// gracefulWait bounds the shutdown-command round trip during Stop.
	gracefulWait = 2 * time.Second
	// exitWait bounds how long Stop waits for the process to die.
	exitWait = 5 * time.Second
)

// Process owns the engine subprocess lifecycle. It is the sole closer of the
// stdio pipes; the Client borrows them for I/O but never closes them.
type Process struct {
	cfg     config.EngineConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   *bufio.Reader
	done     chan struct{}
	stopping bool
	stopped  bool

	// client is set by NewClient so Stop can issue the shutdown command
	// through the serialized pipe path.
	client *Client
}

// NewProcess builds a supervisor for the configured engine binary. Nothing
// is spawned until Start.
func NewProcess(cfg config.EngineConfig, m *metrics.Metrics, logger *zap.Logger) *Process {
	return &Process{
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Start spawns the engine with its event log and snapshot locations. The
// data directories are created first; a failure to spawn is fatal to the
// caller, which must not begin serving HTTP.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil && p.aliveLocked() {
		return fmt.Errorf("engine already running (pid %d)", p.cmd.Process.Pid)
	}
	if p.cfg.Path == "" {
		return fmt.Errorf("engine binary not found: set ENGINE_PATH or build the engine")
	}
	for _, dir := range []string{p.cfg.DataDir, filepath.Dir(p.cfg.EventLogPath), p.cfg.SnapshotDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	cmd := exec.Command(p.cfg.Path,
		"--event-log", p.cfg.EventLogPath,
		"--snapshot-dir", p.cfg.SnapshotDir,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("engine stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("engine stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("engine stderr pipe: %w", err)
	}

	p.logger.Info("starting engine",
		zap.String("path", p.cfg.Path),
		zap.String("event_log", p.cfg.EventLogPath),
		zap.String("snapshot_dir", p.cfg.SnapshotDir),
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start engine %s: %w", p.cfg.Path, err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.done = make(chan struct{})
	p.stopping = false
	p.stopped = false

	go p.drainStderr(stderr)
	go p.watch(cmd, p.done)

	p.metrics.SetEngineConnected(true)
	p.logger.Info("engine started", zap.Int("pid", cmd.Process.Pid))
	return nil
}

// watch reaps the subprocess and records the exit. Wait also closes the
// pipes, which unblocks any in-flight read with an error the Client maps to
// a transport failure.
func (p *Process) watch(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()

	p.mu.Lock()
	stopping := p.stopping
	p.mu.Unlock()
	close(done)

	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	if stopping {
		p.logger.Info("engine exited", zap.Int("exit_code", code))
		return
	}
	p.metrics.SetEngineConnected(false)
	if err != nil {
		p.logger.Error("engine exited unexpectedly",
			zap.Int("exit_code", code),
			zap.Error(err),
		)
		return
	}
	p.logger.Error("engine exited unexpectedly", zap.Int("exit_code", code))
}

func (p *Process) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		p.logger.Info("engine output", zap.String("line", scanner.Text()))
	}
}

// Stop tears the engine down: a best-effort shutdown command through the
// client, SIGTERM if it is still alive, then a bounded wait with a kill as
// the last resort. Stop never fails and may be called at any time, in any
// state, more than once.
func (p *Process) Stop(ctx context.Context) {
	p.mu.Lock()
	if p.cmd == nil || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopping = true
	client := p.client
	cmd := p.cmd
	done := p.done
	stdin := p.stdin
	p.mu.Unlock()

	if p.Alive() && client != nil {
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			_, _ = client.Shutdown(context.WithoutCancel(ctx))
		}()
		select {
		case <-finished:
		case <-time.After(gracefulWait):
			p.logger.Warn("engine ignored shutdown command")
		}
	}

	if p.Alive() {
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}
	select {
	case <-done:
	case <-time.After(exitWait):
		p.logger.Warn("engine did not exit in time, killing",
			zap.Duration("waited", exitWait))
		_ = cmd.Process.Kill()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}

	_ = stdin.Close()

	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.metrics.SetEngineConnected(false)
	p.logger.Info("engine stopped")
}

// Alive reports whether the subprocess is currently running. It never blocks.
func (p *Process) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aliveLocked()
}

func (p *Process) aliveLocked() bool {
	if p.cmd == nil || p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// handles returns the pipe ends plus the started/alive observations the
// Client needs, in one consistent snapshot.
func (p *Process) handles() (io.Writer, *bufio.Reader, bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdin, p.stdout, p.cmd != nil, p.aliveLocked()
}
