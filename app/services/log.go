package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"Cmprssr/internal/core"
)

const maxLogEntries = 500

// LogService keeps a bounded history of job events for the log panel
type LogService struct {
	ctx    context.Context
	logger *log.Logger
	logs   []LogEntry
	mu     sync.Mutex
}

// NewLogService creates a new LogService
func NewLogService(ctx context.Context, logger *log.Logger) *LogService {
	return &LogService{
		ctx:    ctx,
		logger: logger,
		logs:   []LogEntry{},
	}
}

// SetContext updates the service context
func (s *LogService) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "error"
	JobID     string    `json:"jobId,omitempty"`
	Message   string    `json:"message"`
}

// EmitJobUpdate implements core.JobEventEmitter
func (s *LogService) EmitJobUpdate(event core.JobUpdateEvent) {
	level := "info"
	if event.State == core.JobFailed {
		level = "error"
	}

	message := event.Message
	if event.State == core.JobRunning {
		message = fmt.Sprintf("%s %s (%s) -> %s", event.Message, event.Params["sourcePath"], event.Params["codec"], event.Params["destinationFolder"])
	}

	s.append(LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		JobID:     event.JobID,
		Message:   message,
	})
}

func (s *LogService) append(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = append([]LogEntry(nil), s.logs[len(s.logs)-maxLogEntries:]...)
	}
}

// GetRecentLogs returns recent log entries
func (s *LogService) GetRecentLogs(limit int) ([]LogEntry, error) {
	s.logger.Printf("[LogService] GetRecentLogs: limit=%d", limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Return last 'limit' entries
	start := 0
	if limit >= 0 && len(s.logs) > limit {
		start = len(s.logs) - limit
	}

	return append([]LogEntry(nil), s.logs[start:]...), nil
}

// ExportLogs writes all entries as indented JSON. With an empty path the
// user is asked where to save.
func (s *LogService) ExportLogs(outputPath string) (string, error) {
	if outputPath == "" {
		path, err := runtime.SaveFileDialog(s.ctx, runtime.SaveDialogOptions{
			Title:           "Export Log",
			DefaultFilename: "cmprssr-log.json",
		})
		if err != nil {
			return "", err
		}
		if path == "" {
			return "", nil
		}
		outputPath = path
	}
	s.logger.Printf("[LogService] ExportLogs: outputPath=%s", outputPath)

	entries, _ := s.GetRecentLogs(-1)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal logs: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write log export: %w", err)
	}
	return outputPath, nil
}
