package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/kelsos/rotki-client/internal/config"
	"github.com/kelsos/rotki-client/internal/logger"
)

const stopTimeout = 10 * time.Second

// ReadyFunc reports whether the backend answers requests.
type ReadyFunc func(ctx context.Context) bool

// RotkiProcess represents a running rotki-core process
type RotkiProcess struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error

	Port    int
	BinPath string
}

// coreArgs builds the command line of rotki-core.
func coreArgs(cfg *config.Config) []string {
	args := []string{"--rest-api-port", strconv.Itoa(cfg.Port)}
	if cfg.DataDir != "" {
		args = append(args, "--data-dir", cfg.DataDir)
	}
	return args
}

func resolveBinPath(binPath string) (string, error) {
	if binPath == "" {
		return "", errors.New("no rotki-core binary configured")
	}
	if !filepath.IsAbs(binPath) {
		absPath, err := filepath.Abs(binPath)
		if err != nil {
			return "", fmt.Errorf("invalid binary path: %w", err)
		}
		binPath = absPath
	}
	return filepath.Clean(binPath), nil
}

// StartRotkiCore launches rotki-core and waits until ready reports the API
// is up. The process is killed when it does not become ready.
func StartRotkiCore(ctx context.Context, cfg *config.Config, ready ReadyFunc) (*RotkiProcess, error) {
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port must be between 1024 and 65535, got: %d", cfg.Port)
	}

	binPath, err := resolveBinPath(cfg.BinPath)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting rotki-core at port %d...", cfg.Port)

	// #nosec G204 - the binary comes from the validated configuration
	cmd := exec.Command(binPath, coreArgs(cfg)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start rotki-core: %w", err)
	}

	rotki := &RotkiProcess{
		cmd:     cmd,
		done:    make(chan struct{}),
		Port:    cfg.Port,
		BinPath: binPath,
	}
	go func() {
		rotki.waitErr = cmd.Wait()
		close(rotki.done)
	}()

	if !ready(ctx) {
		logger.Error("rotki-core API did not become ready, stopping it")
		if err := rotki.kill(); err != nil {
			logger.Error("Failed to kill rotki-core process: %v", err)
		}
		return nil, fmt.Errorf("rotki-core API failed to become ready after %d attempts", cfg.APIReadyTimeout)
	}

	return rotki, nil
}

// Done is closed once the process has exited.
func (r *RotkiProcess) Done() <-chan struct{} {
	return r.done
}

// Stop asks rotki-core to terminate and kills it if it does not exit in time.
func (r *RotkiProcess) Stop() error {
	select {
	case <-r.done:
		return r.exitError()
	default:
	}

	logger.Info("Terminating rotki-core...")
	if err := r.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return r.kill()
	}

	select {
	case <-r.done:
		logger.Info("rotki-core exited")
		return nil
	case <-time.After(stopTimeout):
		logger.Warn("rotki-core did not exit after %s, killing it", stopTimeout)
		return r.kill()
	}
}

func (r *RotkiProcess) kill() error {
	if err := r.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-r.done
	return nil
}

func (r *RotkiProcess) exitError() error {
	if r.waitErr != nil {
		return fmt.Errorf("rotki-core exited with error: %w", r.waitErr)
	}
	return nil
}
