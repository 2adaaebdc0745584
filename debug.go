package pacer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DebugLogger provides debug logging for Pacer operations.
// When enabled, it logs all reasoning-provider communications including
// prompts, responses, and full error details.
type DebugLogger struct {
	mu      sync.Mutex
	enabled bool
	writer  io.Writer
}

// NewDebugLogger creates a new debug logger.
// If logPath is empty, logs to stderr.
func NewDebugLogger(enabled bool, logPath string) (*DebugLogger, error) {
	var writer io.Writer = os.Stderr

	if enabled && logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open debug log: %w", err)
		}
		writer = f
	}

	return &DebugLogger{
		enabled: enabled,
		writer:  writer,
	}, nil
}

// Close closes the debug logger if it's writing to a file.
func (l *DebugLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if closer, ok := l.writer.(io.Closer); ok && l.writer != os.Stderr {
		return closer.Close()
	}
	return nil
}

// Log writes a debug message if logging is enabled.
func (l *DebugLogger) Log(format string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(l.writer, "[%s] [PACER DEBUG] %s\n", timestamp, msg)
}

// LogPrompt logs an outgoing reasoner prompt.
func (l *DebugLogger) LogPrompt(operation, prompt string) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("PROMPT [%s]: %s", operation, truncateForLog(prompt, 2000))
}

// LogResponse logs a reasoner response.
func (l *DebugLogger) LogResponse(statusCode int, operation string, body []byte) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("RESPONSE %d [%s]: %s", statusCode, operation, truncateForLog(string(body), 4000))
}

// LogError logs an error with full details.
func (l *DebugLogger) LogError(operation string, err error) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("ERROR [%s]: %v", operation, err)
}

// LogUpdate logs profile-update cycle details.
func (l *DebugLogger) LogUpdate(operation string, details string) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("UPDATE [%s]: %s", operation, details)
}

// truncateForLog truncates a string for logging purposes.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}
