package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// AttachedProcess identifies an external process the user attached to the session.
type AttachedProcess struct {
	PID  int
	Name string
}

func (p AttachedProcess) String() string {
	name := p.Name
	if name == "" {
		name = "UnknownProcess"
	}
	return fmt.Sprintf("%s (PID: %d)", name, p.PID)
}

// LookupProcess resolves pid into an AttachedProcess.
func LookupProcess(pid int) (*AttachedProcess, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("%w: pid must be positive", ErrInvalidParam)
	}
	if !processAlive(pid) {
		return nil, fmt.Errorf("process %d is not running", pid)
	}
	return &AttachedProcess{PID: pid, Name: processName(pid)}, nil
}

func processName(pid int) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	comm, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(comm))
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// --- AttachedProcessTool ---

// AttachedProcessTool reports on the process attached to the session.
type AttachedProcessTool struct{}

func (t *AttachedProcessTool) Name() string {
	return "get_attached_process"
}

func (t *AttachedProcessTool) Description() string {
	return "Reports the process the user has attached to this session (name, PID and whether it is still running). Parameters: None."
}

func (t *AttachedProcessTool) NeedsAttachedProcess() bool {
	return true
}

func (t *AttachedProcessTool) Execute(ctx context.Context, params Params) (string, error) {
	var proc *AttachedProcess
	switch v := params[AttachedProcessKey].(type) {
	case *AttachedProcess:
		proc = v
	case AttachedProcess:
		proc = &v
	}
	if proc == nil {
		return "", fmt.Errorf("%w: attach a process before using %s", ErrNoAttachedProcess, t.Name())
	}

	state := "running"
	if !processAlive(proc.PID) {
		state = "no longer running"
	}
	return fmt.Sprintf("Attached process: %s, %s.", proc, state), nil
}
