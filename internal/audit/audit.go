// Package audit writes the bot's append-only event log. The line
// format and action vocabulary are a fixed external contract consumed
// by reporting tooling; diagnostic logging lives in zap, not here.
package audit

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event log actions.
const (
	ActionCommandStart            = "COMMAND_START"
	ActionCommandComplaint        = "COMMAND_COMPLAINT"
	ActionAnalysisSuccess         = "ANALYSIS_SUCCESS"
	ActionImageDescriptionSuccess = "IMAGE_DESCRIPTION_SUCCESS"
	ActionChatMessage             = "CHAT_MESSAGE"
	ActionError                   = "ERROR"
	ActionSendFail                = "SEND_FAIL"
	ActionBotStart                = "BOT_START"
	ActionRawAnalysisResponse     = "RAW_GEMINI_ANALYSIS_RESPONSE"
)

const systemActor = "SYSTEM"

// Logger appends one line per event to a log file. Write failures are
// reported to zap and otherwise swallowed; audit logging must never
// abort a handler.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	log *zap.Logger
	now func() time.Time
}

// Open creates the event log appender. A Logger is always returned:
// if the file cannot be opened, events are dropped with a zap warning.
func Open(path string, log *zap.Logger) *Logger {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Warn("audit log unavailable, events will be dropped",
			zap.Error(err),
			zap.String("path", path))
		f = nil
	}
	return &Logger{f: f, log: log, now: time.Now}
}

// Event appends one line for a user-attributed action.
func (l *Logger) Event(userID, username, action, details string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return
	}

	line := fmt.Sprintf("[%s] User:%s (%s) | %s | %s\n",
		l.now().Format("2006-01-02 15:04:05"), userID, username, action, details)
	if _, err := l.f.WriteString(line); err != nil {
		l.log.Error("failed to write audit event",
			zap.Error(err),
			zap.String("action", action))
	}
}

// System appends one line for an event with no originating user.
func (l *Logger) System(action, details string) {
	l.Event(systemActor, systemActor, action, details)
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

// Truncate bounds free-form details (raw model output in particular)
// before they reach the log.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
