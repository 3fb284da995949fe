package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/airframesio/data-validator/cmd/reporting"
)

// ErrAlreadyRunning is returned when another validation run holds the PID file
var ErrAlreadyRunning = errors.New("another validation run is in progress")

// RunInfo represents the status of the current validation run
type RunInfo struct {
	PID             int       `json:"pid"`
	RunID           string    `json:"run_id"`
	StartTime       time.Time `json:"start_time"`
	Source          string    `json:"source"`
	Target          string    `json:"target"`
	CurrentCheck    string    `json:"current_check,omitempty"`
	TotalChecks     int       `json:"total_checks"`
	CompletedChecks int       `json:"completed_checks"`
	FailedChecks    int       `json:"failed_checks"`
	Progress        float64   `json:"progress"`
	LastUpdate      time.Time `json:"last_update"`
}

func stateDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".data-validator")
}

// GetPIDFilePath returns the path to the PID file
func GetPIDFilePath() string {
	return filepath.Join(stateDir(), "validator.pid")
}

// GetRunFilePath returns the path to the run info file
func GetRunFilePath() string {
	return filepath.Join(stateDir(), "current_run.json")
}

// WritePIDFile writes the current process PID to a file
func WritePIDFile() error {
	pidPath := GetPIDFilePath()
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

// RemovePIDFile removes the PID file
func RemovePIDFile() error {
	return os.Remove(GetPIDFilePath())
}

// ReadPIDFile reads the PID from file
func ReadPIDFile() (int, error) {
	data, err := os.ReadFile(GetPIDFilePath())
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// IsProcessRunning checks if a process with given PID is running
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// signal 0 probes for existence without delivering anything
	return process.Signal(syscall.Signal(0)) == nil
}

// ClaimPIDFile writes the PID file unless a live process other than this one
// already holds it. A stale file left by a dead process is replaced.
func ClaimPIDFile() error {
	if pid, err := ReadPIDFile(); err == nil && pid != os.Getpid() && IsProcessRunning(pid) {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	return WritePIDFile()
}

// WriteRunInfo writes current run information to file
func WriteRunInfo(info *RunInfo) error {
	runPath := GetRunFilePath()
	if err := os.MkdirAll(filepath.Dir(runPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	info.LastUpdate = time.Now()

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run info: %w", err)
	}
	return os.WriteFile(runPath, data, 0o600)
}

// ReadRunInfo reads current run information from file
func ReadRunInfo() (*RunInfo, error) {
	data, err := os.ReadFile(GetRunFilePath())
	if err != nil {
		return nil, err
	}

	var info RunInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run info: %w", err)
	}
	return &info, nil
}

// RemoveRunFile removes the run info file
func RemoveRunFile() error {
	return os.Remove(GetRunFilePath())
}

// newRunInfo starts the bookkeeping of a run with a fresh run id
func newRunInfo(config *Config) *RunInfo {
	return &RunInfo{
		PID:         os.Getpid(),
		RunID:       uuid.NewString(),
		StartTime:   time.Now(),
		Source:      config.Source.describe(),
		Target:      config.Target.describe(),
		TotalChecks: len(config.Checks),
	}
}

// runTracker keeps the run info file current as checks progress and
// forwards events to the next reporter. Checks may finish concurrently.
type runTracker struct {
	mu   sync.Mutex
	info *RunInfo
	next checkReporter
}

func newRunTracker(info *RunInfo, next checkReporter) *runTracker {
	return &runTracker{info: info, next: next}
}

func (t *runTracker) CheckStarted(index int, metric string) {
	t.mu.Lock()
	t.info.CurrentCheck = metric
	_ = WriteRunInfo(t.info)
	t.mu.Unlock()

	t.next.CheckStarted(index, metric)
}

func (t *runTracker) CheckFinished(index int, result reporting.ValidationResult) {
	t.mu.Lock()
	t.info.CompletedChecks++
	if !result.Passed() {
		t.info.FailedChecks++
	}
	if t.info.TotalChecks > 0 {
		t.info.Progress = float64(t.info.CompletedChecks) / float64(t.info.TotalChecks)
	}
	_ = WriteRunInfo(t.info)
	t.mu.Unlock()

	t.next.CheckFinished(index, result)
}
