// Package storage keeps small pieces of client state on disk between runs.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// queryEntry is the on-disk form of one history source.
type queryEntry struct {
	LastQueried int64 `json:"last_queried"`
	UpdatedAt   int64 `json:"updated_at"`
}

// DataDir returns the client data directory, creating it if needed.
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".rotki-client")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}

// QueryLog remembers when each history source of a user was last queried.
type QueryLog struct {
	path string
}

func NewQueryLog(dir, username string) *QueryLog {
	name := strings.ToLower(strings.TrimSpace(username))
	return &QueryLog{path: filepath.Join(dir, fmt.Sprintf("%s_history.json", name))}
}

func (l *QueryLog) Path() string {
	return l.path
}

// Load returns the recorded timestamps. A missing file is an empty log.
func (l *QueryLog) Load() (map[string]time.Time, error) {
	fileData, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read query log: %w", err)
	}

	var entries map[string]queryEntry
	if err := json.Unmarshal(fileData, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal query log: %w", err)
	}

	queried := make(map[string]time.Time, len(entries))
	for source, entry := range entries {
		queried[source] = time.Unix(entry.LastQueried, 0)
	}
	return queried, nil
}

// Save merges the timestamps into the log. Older timestamps never replace newer ones.
func (l *QueryLog) Save(queried map[string]time.Time) error {
	if len(queried) == 0 {
		return nil
	}

	merged, err := l.Load()
	if err != nil {
		return err
	}
	for source, at := range queried {
		if previous, ok := merged[source]; !ok || at.After(previous) {
			merged[source] = at
		}
	}

	now := time.Now().Unix()
	entries := make(map[string]queryEntry, len(merged))
	for source, at := range merged {
		entries[source] = queryEntry{LastQueried: at.Unix(), UpdatedAt: now}
	}

	jsonData, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal query log: %w", err)
	}
	if err := os.WriteFile(l.path, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write query log: %w", err)
	}
	return nil
}
