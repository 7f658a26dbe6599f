// Package daemonctl starts, stops and inspects the reelsmithd process from
// the CLI. The daemon is located through its flock lock and pid file; there
// is no control socket.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"reelsmith/internal/config"
)

// ErrDaemonNotRunning indicates no process holds the daemon lock.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	ForcedKill bool
	PID        int
}

// Launch starts a detached reelsmithd process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	var args []string
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if lvl := strings.TrimSpace(opts.LogLevel); lvl != "" {
		args = append(args, "--log-level", lvl)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// ProcessInfo reports whether a daemon holds the lock and, when known, its
// pid.
func ProcessInfo(cfg *config.Config) (bool, int, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("probe daemon lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return false, 0, nil
	}
	pid, err := ReadPID(cfg.PIDPath())
	if err != nil {
		return true, 0, err
	}
	return true, pid, nil
}

// ReadPID parses a pid file. A missing file yields 0 and no error.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid daemon pid file %q: %q", path, text)
	}
	return pid, nil
}

// EnsureStarted launches the daemon unless one is already running and waits
// for it to take the lock.
func EnsureStarted(cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	running, pid, err := ProcessInfo(cfg)
	if err != nil {
		return StartResult{}, err
	}
	if running {
		return StartResult{State: StartStateAlreadyRunning, PID: pid}, nil
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}

	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		running, pid, err = ProcessInfo(cfg)
		if err == nil && running {
			return StartResult{State: StartStateStarted, PID: pid}, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return StartResult{}, fmt.Errorf("daemon failed to start within %s; check %s", waitTimeout, cfg.Paths.LogDir)
}

// WaitForShutdown waits until no process holds the daemon lock.
func WaitForShutdown(cfg *config.Config, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		running, _, err := ProcessInfo(cfg)
		if err == nil && !running {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

// StopAndTerminate sends SIGTERM and force-kills the process if it still
// holds the lock after gracePeriod. Jobs it was running stay processing and
// resume on the next start.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	running, pid, err := ProcessInfo(cfg)
	if err != nil {
		return StopResult{}, err
	}
	if !running {
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid <= 0 {
		return StopResult{}, fmt.Errorf("daemon holds %s but wrote no pid file", cfg.LockPath())
	}
	if err := signalProcess(pid, syscall.SIGTERM); err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid}
	if WaitForShutdown(cfg, gracePeriod) == nil {
		return result, nil
	}
	killed, err := ForceKillProcess(cfg.PIDPath(), pid)
	if err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	result.ForcedKill = true
	result.PID = killed
	return result, nil
}

// Restart stops the daemon if running, then starts it again.
func Restart(cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (StartResult, error) {
	if _, err := StopAndTerminate(cfg, stopGracePeriod); err != nil && !errors.Is(err, ErrDaemonNotRunning) {
		return StartResult{}, err
	}
	return EnsureStarted(cfg, executablePath, opts, startWaitTimeout)
}

// ForceKillProcess sends SIGKILL to the daemon and removes its pid file. The
// kernel drops the flock with the process.
func ForceKillProcess(pidPath string, fallbackPID int) (int, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		pid = fallbackPID
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if err := signalProcess(pid, syscall.SIGKILL); err != nil {
		return 0, err
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	return pid, nil
}

func signalProcess(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return nil
}
