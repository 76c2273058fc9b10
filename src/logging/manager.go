package logging

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"docedit/src/events"
)

// DefaultTimeLayout formats log timestamps as 20060102 15:04:05.
const DefaultTimeLayout = "20060102 15:04:05"

// Manager writes executed commands of enabled documents to .<name>.log files.
type Manager struct {
	mu             sync.Mutex
	enabled        map[string]map[string]struct{}
	sessionStarted map[string]bool
	timeLayout     string
	now            func() time.Time
	logger         *slog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithTimeLayout sets the timestamp layout.
func WithTimeLayout(layout string) Option {
	return func(m *Manager) {
		if layout != "" {
			m.timeLayout = layout
		}
	}
}

// WithClock replaces time.Now for session markers.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager builds a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		enabled:        map[string]map[string]struct{}{},
		sessionStarted: map[string]bool{},
		timeLayout:     DefaultTimeLayout,
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle appends command events of enabled documents to their log file.
func (m *Manager) Handle(evt events.Event) error {
	if evt.Type != events.EventCommandExecuted || evt.Path == "" {
		return nil
	}
	abs, err := filepath.Abs(evt.Path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	excluded, enabled := m.enabled[abs]
	if !enabled {
		return nil
	}
	if _, skip := excluded[evt.Verb]; skip {
		return nil
	}
	line := evt.Label
	if line == "" || evt.Verb == "undo" || evt.Verb == "redo" {
		line = evt.Verb
	}
	if err := m.startSession(abs); err != nil {
		return err
	}
	return m.append(abs, fmt.Sprintf("%s %s", evt.Timestamp.Format(m.timeLayout), line))
}

// Enable activates logging for a file, suppressing the excluded verbs.
// Re-enabling replaces the exclusion set.
func (m *Manager) Enable(path string, exclude []string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]struct{}, len(exclude))
	for _, verb := range exclude {
		set[verb] = struct{}{}
	}
	m.enabled[abs] = set
	if err := m.startSession(abs); err != nil {
		m.logger.Warn("cannot write log session marker", "path", abs, "err", err)
	}
	return nil
}

// Disable turns off logging for a file.
func (m *Manager) Disable(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enabled, abs)
	return nil
}

// Enabled returns whether logging is active for a path.
func (m *Manager) Enabled(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.enabled[abs]
	return ok
}

// Excluded lists the suppressed verbs of a path in sorted order.
func (m *Manager) Excluded(path string) []string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.enabled[abs]))
	for verb := range m.enabled[abs] {
		result = append(result, verb)
	}
	sort.Strings(result)
	return result
}

// Restore re-enables logging for paths saved in a previous session. Paths
// already enabled, e.g. by a "# log" directive, keep their exclusions.
func (m *Manager) Restore(paths []string) {
	for _, p := range paths {
		if m.Enabled(p) {
			continue
		}
		if err := m.Enable(p, nil); err != nil {
			m.logger.Warn("cannot restore logging", "path", p, "err", err)
		}
	}
}

// ActivePaths lists currently enabled files.
func (m *Manager) ActivePaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.enabled))
	for path := range m.enabled {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// LogFilePath resolves the log file path for a given file.
func LogFilePath(source string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	name := filepath.Base(abs)
	return filepath.Join(dir, fmt.Sprintf(".%s.log", name)), nil
}

// Show returns the log contents for a file.
func (m *Manager) Show(path string) (string, error) {
	logPath, err := LogFilePath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		return "", fmt.Errorf("无法读取日志文件 %s: %w", logPath, err)
	}
	return string(data), nil
}

// ParseDirective reads a "# log [-e verb]..." line. It reports whether the
// line enables logging and which verbs it suppresses.
func ParseDirective(line string) (bool, []string) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) < 2 || fields[0] != "#" || fields[1] != "log" {
		return false, nil
	}
	var exclude []string
	for i := 2; i < len(fields); i++ {
		if fields[i] == "-e" && i+1 < len(fields) {
			exclude = append(exclude, fields[i+1])
			i++
		}
	}
	return true, exclude
}

// FormatDirective renders a directive line for the given exclusions.
func FormatDirective(exclude []string) string {
	var b strings.Builder
	b.WriteString("# log")
	for _, verb := range exclude {
		b.WriteString(" -e ")
		b.WriteString(verb)
	}
	return b.String()
}

func (m *Manager) startSession(abs string) error {
	if m.sessionStarted[abs] {
		return nil
	}
	if err := m.append(abs, fmt.Sprintf("session start at %s", m.now().Format(m.timeLayout))); err != nil {
		return err
	}
	m.sessionStarted[abs] = true
	return nil
}

func (m *Manager) append(sourcePath, line string) error {
	logPath, err := LogFilePath(sourcePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	writer := bufio.NewWriter(f)
	if _, err := writer.WriteString(strings.TrimSpace(line) + "\n"); err != nil {
		return err
	}
	return writer.Flush()
}
