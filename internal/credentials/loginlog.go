package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// timestampLayout is a naive UTC ISO-8601 timestamp with microseconds.
const timestampLayout = "2006-01-02T15:04:05.999999"

// LoginEntry is one line of the login history.
type LoginEntry struct {
	LoginTimestamp string `json:"loginTimestamp"`
	Token          string `json:"token"`
	Email          string `json:"email"`
	Name           string `json:"name"`
}

// Time parses the entry timestamp.
func (e LoginEntry) Time() (time.Time, error) {
	return parseTimestamp(e.LoginTimestamp)
}

// LoginLog is the append-only login history kept in login.json.
type LoginLog struct {
	path string
	now  func() time.Time
}

// NewLoginLog creates a login log writing login.json into dir.
func NewLoginLog(dir string) *LoginLog {
	return &LoginLog{path: filepath.Join(dir, "login.json"), now: time.Now}
}

// LoginDuration converts a duration in months to a time.Duration, counting
// 30 days per month.
func LoginDuration(months int) time.Duration {
	return time.Duration(months) * 30 * 24 * time.Hour
}

// Entries returns all logged logins. A file holding a single object instead
// of a list is read as a one-entry list.
func (l *LoginLog) Entries() ([]LoginEntry, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read login log: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var entry LoginEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse login log: %w", err)
		}
		return []LoginEntry{entry}, nil
	}

	var entries []LoginEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse login log: %w", err)
	}
	return entries, nil
}

// Append records a login at the current time.
func (l *LoginLog) Append(token, email, name string) error {
	entries, err := l.Entries()
	if err != nil {
		return err
	}

	entries = append(entries, LoginEntry{
		LoginTimestamp: l.now().UTC().Format(timestampLayout),
		Token:          token,
		Email:          email,
		Name:           name,
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal login log: %w", err)
	}
	return writeFileAtomic(l.path, data)
}

// Latest returns the most recent login entry.
func (l *LoginLog) Latest() (LoginEntry, bool, error) {
	entries, err := l.Entries()
	if err != nil || len(entries) == 0 {
		return LoginEntry{}, false, err
	}
	latest := slices.MaxFunc(entries, func(a, b LoginEntry) int {
		return strings.Compare(a.LoginTimestamp, b.LoginTimestamp)
	})
	if latest.LoginTimestamp == "" {
		return LoginEntry{}, false, nil
	}
	return latest, true, nil
}

// Valid reports whether the most recent login happened within maxAge.
func (l *LoginLog) Valid(maxAge time.Duration) (bool, error) {
	latest, ok, err := l.Latest()
	if err != nil || !ok {
		return false, err
	}
	at, err := latest.Time()
	if err != nil {
		return false, err
	}
	return l.now().Sub(at) <= maxAge, nil
}

// parseTimestamp accepts naive timestamps (read as UTC) and RFC 3339.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(timestampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid login timestamp %q", s)
	}
	return t, nil
}
