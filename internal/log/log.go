package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// OperationType names a unit of work recorded in a build session.
type OperationType string

const (
	OpFetch     OperationType = "fetch"
	OpSearch    OperationType = "search"
	OpCrossRef  OperationType = "crossref"
	OpSkip      OperationType = "skip"
	OpWrite     OperationType = "write"
	OpCacheSave OperationType = "cache_save"
)

type OperationLog struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Type      OperationType `json:"type"`
	Subject   string        `json:"subject"`
	Detail    string        `json:"detail,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

type SessionMetadata struct {
	CommandArgs   []string  `json:"command_args"`
	WorkingDir    string    `json:"working_dir"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`
	TotalOps      int       `json:"total_operations"`
	SuccessfulOps int       `json:"successful_operations"`
	FailedOps     int       `json:"failed_operations"`
}

type Session struct {
	Metadata   SessionMetadata `json:"metadata"`
	Operations []OperationLog  `json:"operations"`
}

var (
	currentSession *Session
	sessionMutex   sync.Mutex
	loggingEnabled = true
	logFs          = afero.Afero{Fs: afero.NewOsFs()}
	logDirOverride string
)

// StartSession begins recording operations for a command invocation.
func StartSession(command string, args []string) error {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	if !loggingEnabled {
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	now := time.Now()
	currentSession = &Session{
		Metadata: SessionMetadata{
			CommandArgs: append([]string{command}, args...),
			WorkingDir:  wd,
			Timestamp:   now,
			SessionID:   fmt.Sprintf("%s_%03d", now.Format("20060102_150405"), now.Nanosecond()/1000000),
		},
		Operations: []OperationLog{},
	}
	return nil
}

// EndSession writes the current session to the log directory and clears it.
func EndSession() error {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	if !loggingEnabled || currentSession == nil {
		return nil
	}

	updateStats()
	err := WriteSession(currentSession)
	currentSession = nil
	return err
}

func LogFetch(location string, success bool, err error) {
	LogOperation(OpFetch, location, "", success, err)
}

func LogSearch(series string, catalogID int, success bool, err error) {
	detail := ""
	if catalogID > 0 {
		detail = fmt.Sprintf("tmdb:%d", catalogID)
	}
	LogOperation(OpSearch, series, detail, success, err)
}

func LogCrossRef(series, crossRefID string, success bool, err error) {
	LogOperation(OpCrossRef, series, crossRefID, success, err)
}

// LogSkip records a series whose episodes were left out of the output.
func LogSkip(series, reason string) {
	LogOperation(OpSkip, series, reason, true, nil)
}

func LogWrite(path string, success bool, err error) {
	LogOperation(OpWrite, path, "", success, err)
}

func LogCacheSave(path string, success bool, err error) {
	LogOperation(OpCacheSave, path, "", success, err)
}

// LogOperation appends an operation to the current session, if any.
func LogOperation(opType OperationType, subject, detail string, success bool, err error) {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	if !loggingEnabled || currentSession == nil {
		return
	}

	op := OperationLog{
		ID:        fmt.Sprintf("%s_%d", currentSession.Metadata.SessionID, len(currentSession.Operations)),
		Timestamp: time.Now(),
		Type:      opType,
		Subject:   subject,
		Detail:    detail,
		Success:   success,
	}
	if err != nil {
		op.Error = err.Error()
	}

	currentSession.Operations = append(currentSession.Operations, op)
}

func updateStats() {
	if currentSession == nil {
		return
	}

	successful := 0
	for _, op := range currentSession.Operations {
		if op.Success {
			successful++
		}
	}

	currentSession.Metadata.TotalOps = len(currentSession.Operations)
	currentSession.Metadata.SuccessfulOps = successful
	currentSession.Metadata.FailedOps = len(currentSession.Operations) - successful
}

// Initialize toggles session logging and prunes sessions older than retentionDays.
func Initialize(enabled bool, retentionDays int) {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	loggingEnabled = enabled
	if enabled {
		if err := cleanupOldLogsUnsafe(retentionDays); err != nil {
			Warnf("failed to clean up old logs: %v", err)
		}
	}
}

// LogDir returns the directory session files are written to.
func LogDir() (string, error) {
	if logDirOverride != "" {
		return logDirOverride, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".your-series", "logs"), nil
}

func WriteSession(session *Session) error {
	if session == nil {
		return nil
	}

	dir, err := LogDir()
	if err != nil {
		return err
	}
	if err := logFs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ts := session.Metadata.Timestamp
	name := fmt.Sprintf("%s.%03d.json", ts.Format("2006-01-02_150405"), ts.Nanosecond()/1000000)
	if err := logFs.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}

func ReadSession(path string) (*Session, error) {
	data, err := logFs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// ReadSessions returns up to limit sessions, newest first. Unreadable files are skipped.
func ReadSessions(limit int) ([]*Session, error) {
	files, err := sessionFiles()
	if err != nil {
		return nil, err
	}

	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	sessions := make([]*Session, 0, len(files))
	for _, file := range files {
		session, err := ReadSession(file)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func sessionFiles() ([]string, error) {
	dir, err := LogDir()
	if err != nil {
		return nil, err
	}
	if exists, _ := logFs.DirExists(dir); !exists {
		return nil, nil
	}
	files, err := afero.Glob(logFs, filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	return files, nil
}

// cleanupOldLogsUnsafe assumes the caller holds sessionMutex.
func cleanupOldLogsUnsafe(retentionDays int) error {
	files, err := sessionFiles()
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, file := range files {
		info, err := logFs.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := logFs.Remove(file); err != nil {
				Warnf("failed to remove old log file %s: %v", file, err)
			}
		}
	}
	return nil
}
