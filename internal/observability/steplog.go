package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	json "github.com/json-iterator/go"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ResponseLogName = "response.log"
	RequestLogName  = "request.log"
)

// StepLog appends one JSON object per line. It is safe for concurrent use.
type StepLog struct {
	mu   sync.Mutex
	path string
	w    io.WriteCloser
	enc  *json.Encoder
}

// NewStepLog opens (or creates) the file at path for appending. Rotation is
// size based; step logs of one task rarely reach the limit.
func NewStepLog(path string) *StepLog {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 3,
	}
	return newStepLog(path, w)
}

func newStepLog(path string, w io.WriteCloser) *StepLog {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &StepLog{path: path, w: w, enc: enc}
}

// Path returns the file the log writes to.
func (l *StepLog) Path() string { return l.path }

// Write encodes record as a single line.
func (l *StepLog) Write(record any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to write step log %s: %w", l.path, err)
	}
	return nil
}

func (l *StepLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

// TaskLogs groups the per-task log directory and its two step logs.
type TaskLogs struct {
	Dir      string
	Response *StepLog
	Request  *StepLog
}

// OpenTaskLogs creates root/taskID and opens response.log and request.log in it.
func OpenTaskLogs(root, taskID string) (*TaskLogs, error) {
	dir := filepath.Join(root, taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create task log directory: %w", err)
	}
	return &TaskLogs{
		Dir:      dir,
		Response: NewStepLog(filepath.Join(dir, ResponseLogName)),
		Request:  NewStepLog(filepath.Join(dir, RequestLogName)),
	}, nil
}

func (t *TaskLogs) Close() error {
	errResp := t.Response.Close()
	errReq := t.Request.Close()
	if errResp != nil {
		return errResp
	}
	return errReq
}
