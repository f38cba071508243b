package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
)

// Worker is anything that answers one JSON request with one JSON response.
type Worker interface {
	Process(req, resp any) error
}

// =================================================================================
// 1. HELPER: Environment Detection
// =================================================================================

// PythonCommand finds the venv interpreter, falling back to the system one.
func PythonCommand() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "python3"
	}

	var venvPath string
	if runtime.GOOS == "windows" {
		venvPath = filepath.Join(cwd, ".venv", "Scripts", "python.exe")
	} else {
		venvPath = filepath.Join(cwd, ".venv", "bin", "python")
	}

	if _, err := os.Stat(venvPath); err == nil {
		return venvPath
	}

	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// =================================================================================
// 2. SINGLE WORKER (Service)
// =================================================================================

// Service manages one long-running worker process speaking line-delimited
// JSON on stdin/stdout.
type Service struct {
	name    string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader // label batches easily exceed bufio.Scanner's 64KB line cap
	mutex   sync.Mutex    // one request in flight per process
	running bool
}

// NewPythonService starts a python worker script. An empty interpreter
// means PythonCommand().
func NewPythonService(interpreter, scriptPath string) (*Service, error) {
	if interpreter == "" {
		interpreter = PythonCommand()
	}
	// "-u": unbuffered stdout, otherwise responses sit in Python's buffer
	return StartService(scriptPath, interpreter, "-u", scriptPath)
}

// StartService starts an arbitrary worker command.
func StartService(name, command string, args ...string) (*Service, error) {
	cmd := exec.Command(command, args...)

	cwd, _ := os.Getwd()
	cmd.Dir = cwd

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	// Worker logs go to our stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %s: %w", name, err)
	}

	return &Service{
		name:    name,
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdout),
		running: true,
	}, nil
}

// Process sends one request and waits for its response line.
func (s *Service) Process(req, resp any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return fmt.Errorf("worker %s is not running", s.name)
	}

	// 1. Encode
	reqBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	// 2. Write, newline-terminated for readline() on the other side
	if _, err := s.stdin.Write(append(reqBytes, '\n')); err != nil {
		return fmt.Errorf("failed to write to worker %s: %w", s.name, err)
	}

	// 3. Read
	respBytes, err := s.stdout.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("failed to read from worker %s (it might have crashed): %w", s.name, err)
	}

	// 4. Decode
	if err := json.Unmarshal(respBytes, resp); err != nil {
		return fmt.Errorf("worker %s returned invalid JSON: %w", s.name, err)
	}

	return nil
}

// Close shuts the worker down.
func (s *Service) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	s.running = false
	// EOF on stdin ends the worker's read loop
	_ = s.stdin.Close()

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
}

// =================================================================================
// 3. WORKER POOL (Load Balancer)
// =================================================================================

// WorkerPool round-robins requests over several copies of one worker.
type WorkerPool struct {
	workers []Worker
	closers []func()
	counter uint64
}

// NewWorkerPool starts count copies of a python worker script.
func NewWorkerPool(interpreter, scriptPath string, count int) (*WorkerPool, error) {
	if count < 1 {
		count = 1
	}

	pool := &WorkerPool{}
	for i := 0; i < count; i++ {
		w, err := NewPythonService(interpreter, scriptPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to start worker %d: %w", i, err)
		}
		pool.workers = append(pool.workers, w)
		pool.closers = append(pool.closers, w.Close)
	}
	return pool, nil
}

// NewPool wraps already running workers.
func NewPool(workers ...Worker) *WorkerPool {
	return &WorkerPool{workers: workers}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int { return len(p.workers) }

// Process hands the request to the next worker.
func (p *WorkerPool) Process(req, resp any) error {
	if len(p.workers) == 0 {
		return fmt.Errorf("no workers available")
	}

	current := atomic.AddUint64(&p.counter, 1)
	return p.workers[current%uint64(len(p.workers))].Process(req, resp)
}

// Close shuts down the workers the pool started.
func (p *WorkerPool) Close() {
	for _, c := range p.closers {
		c()
	}
}
