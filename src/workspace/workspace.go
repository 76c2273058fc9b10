package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"docedit/src/config"
	"docedit/src/editor"
	"docedit/src/events"
	"docedit/src/fs"
	"docedit/src/logging"
	"docedit/src/spellcheck"
)

// SaveDecider asks the user whether to save modifications.
type SaveDecider interface {
	ConfirmSave(path string) (bool, error)
}

// LogSwitch turns per-document command logging on and off.
type LogSwitch interface {
	Enable(path string, exclude []string) error
	ActivePaths() []string
	Restore(paths []string)
}

// DurationSource reports accumulated editing time per document.
type DurationSource interface {
	Duration(path string) time.Duration
}

// Info describes an open document.
type Info struct {
	Path     string
	Name     string
	Kind     editor.Kind
	Modified bool
	Active   bool
	Duration time.Duration
}

// Workspace holds the open documents and routes verbs to the active one.
type Workspace struct {
	baseDir   string
	cfg       config.Config
	documents map[string]*editor.Document
	order     []string
	history   []string
	active    string

	bus       *events.Bus
	store     FileStore
	keeper    *StateKeeper
	logs      LogSwitch
	decider   SaveDecider
	durations DurationSource
	speller   *spellcheck.Service
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Workspace.
type Option func(*Workspace)

// WithStore replaces the disk-backed file store.
func WithStore(store FileStore) Option {
	return func(w *Workspace) { w.store = store }
}

// WithStateKeeper enables session persistence.
func WithStateKeeper(keeper *StateKeeper) Option {
	return func(w *Workspace) { w.keeper = keeper }
}

// WithLogSwitch connects the command log.
func WithLogSwitch(logs LogSwitch) Option {
	return func(w *Workspace) { w.logs = logs }
}

// WithDecider sets who is asked before discarding modifications.
func WithDecider(decider SaveDecider) Option {
	return func(w *Workspace) { w.decider = decider }
}

// WithDurations connects the editing-time statistics.
func WithDurations(source DurationSource) Option {
	return func(w *Workspace) { w.durations = source }
}

// WithSpellService sets the spell checker.
func WithSpellService(service *spellcheck.Service) Option {
	return func(w *Workspace) { w.speller = service }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) { w.logger = logger }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// NewWorkspace builds a workspace rooted at baseDir.
func NewWorkspace(baseDir string, cfg config.Config, bus *events.Bus, opts ...Option) *Workspace {
	w := &Workspace{
		baseDir:   baseDir,
		cfg:       cfg,
		documents: map[string]*editor.Document{},
		bus:       bus,
		store:     OSFileStore{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open activates an already open document or loads it. A missing file
// starts an empty, modified buffer.
func (w *Workspace) Open(path string) (*editor.Document, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	kind := editor.KindText
	if w.cfg.IsXML(abs) {
		kind = editor.KindXML
	}
	return w.openAs(abs, kind)
}

func (w *Workspace) openAs(abs string, kind editor.Kind) (*editor.Document, error) {
	if doc, ok := w.documents[abs]; ok {
		w.setActive(abs)
		return doc, nil
	}
	var doc *editor.Document
	data, err := w.store.Read(abs)
	switch {
	case err == nil:
		doc, err = editor.Decode(abs, kind, data, w.cfg.HistoryLimit)
		if err != nil {
			return nil, err
		}
	case isNotExist(err):
		doc = editor.Empty(abs, kind, w.cfg.HistoryLimit)
	default:
		return nil, &IOError{Op: "read", Path: abs, Err: err}
	}
	w.add(doc)
	w.applyAutoLog(doc)
	return doc, nil
}

// Init creates an unsaved buffer for a file that does not exist yet.
func (w *Workspace) Init(kind editor.Kind, path string, withLog bool) (*editor.Document, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if _, ok := w.documents[abs]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentExists, abs)
	}
	if _, err := w.store.Read(abs); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentExists, abs)
	}
	var doc *editor.Document
	switch kind {
	case editor.KindText:
		var lines []string
		if withLog {
			lines = []string{logging.FormatDirective(nil)}
		}
		doc = editor.NewText(abs, lines, true, w.cfg.HistoryLimit)
	case editor.KindXML:
		doc = editor.Empty(abs, editor.KindXML, w.cfg.HistoryLimit)
		if withLog {
			doc.SetHeader(logging.FormatDirective(nil))
		}
	default:
		return nil, fmt.Errorf("%w: 未知的文件类型 %s", ErrUsage, kind)
	}
	w.add(doc)
	if withLog {
		w.enableLog(abs, nil)
	}
	return doc, nil
}

// SwitchActive makes an open document the active one.
func (w *Workspace) SwitchActive(path string) error {
	abs, err := w.resolvePath(path)
	if err != nil {
		return err
	}
	if _, ok := w.documents[abs]; !ok {
		return notOpen(path)
	}
	w.setActive(abs)
	return nil
}

// Close removes a document, asking the decider first when it is modified.
// An empty path closes the active document. The most recently used remaining
// document becomes active.
func (w *Workspace) Close(path string) (string, error) {
	abs, doc, err := w.target(path)
	if err != nil {
		return "", err
	}
	if doc.IsModified() && w.decider != nil {
		save, err := w.decider.ConfirmSave(abs)
		if err != nil {
			return "", err
		}
		if save {
			if err := w.write(doc); err != nil {
				return "", err
			}
		}
	}
	wasActive := w.active == abs
	if wasActive {
		w.setActive("")
	}
	delete(w.documents, abs)
	w.order = slices.DeleteFunc(w.order, func(p string) bool { return p == abs })
	w.history = slices.DeleteFunc(w.history, func(p string) bool { return p == abs })
	w.publish(events.Event{Type: events.EventClosed, Path: abs})
	if wasActive && len(w.history) > 0 {
		w.setActive(w.history[0])
	}
	return abs, nil
}

// Save writes a document. An empty path saves the active document.
func (w *Workspace) Save(path string) (string, error) {
	abs, doc, err := w.target(path)
	if err != nil {
		return "", err
	}
	return abs, w.write(doc)
}

// SaveAll writes every open document in open order, stopping at the first failure.
func (w *Workspace) SaveAll() error {
	for _, path := range w.order {
		if err := w.write(w.documents[path]); err != nil {
			return err
		}
	}
	return nil
}

// Active returns the active document.
func (w *Workspace) Active() (*editor.Document, error) {
	if w.active == "" {
		return nil, ErrNoActiveDocument
	}
	return w.documents[w.active], nil
}

// Document returns an open document by path.
func (w *Workspace) Document(path string) (*editor.Document, error) {
	_, doc, err := w.target(path)
	return doc, err
}

// Undo reverts the latest command of the active document. The notification
// carries the reverted command's label.
func (w *Workspace) Undo() (string, error) {
	doc, err := w.Active()
	if err != nil {
		return "", err
	}
	label, err := doc.Undo()
	if err != nil {
		return "", err
	}
	w.Record("undo", label, doc.Path())
	return label, nil
}

// Redo reapplies the latest undone command of the active document.
func (w *Workspace) Redo() (string, error) {
	doc, err := w.Active()
	if err != nil {
		return "", err
	}
	label, err := doc.Redo()
	if err != nil {
		return "", err
	}
	w.Record("redo", label, doc.Path())
	return label, nil
}

// List describes open documents in open order.
func (w *Workspace) List() []Info {
	result := make([]Info, 0, len(w.order))
	for _, path := range w.order {
		doc := w.documents[path]
		info := Info{
			Path:     path,
			Name:     doc.Name(),
			Kind:     doc.Kind(),
			Modified: doc.IsModified(),
			Active:   path == w.active,
		}
		if w.durations != nil {
			info.Duration = w.durations.Duration(path)
		}
		result = append(result, info)
	}
	return result
}

// Spans extracts checkable text of a document. An empty path means the active one.
func (w *Workspace) Spans(path string) ([]editor.Span, error) {
	_, doc, err := w.target(path)
	if err != nil {
		return nil, err
	}
	return doc.Spans(), nil
}

// SpellCheck runs the spell checker over a document.
func (w *Workspace) SpellCheck(path string) ([]spellcheck.Issue, error) {
	if w.speller == nil {
		return nil, ErrNoSpellChecker
	}
	spans, err := w.Spans(path)
	if err != nil {
		return nil, err
	}
	return w.speller.Check(spans), nil
}

// DirTree renders a directory, flagging open documents.
func (w *Workspace) DirTree(path string) (string, error) {
	target := w.baseDir
	if path != "" {
		abs, err := w.resolvePath(path)
		if err != nil {
			return "", err
		}
		target = abs
	}
	return fs.Tree(target, fs.Options{Mark: func(p string) string {
		doc, ok := w.documents[p]
		switch {
		case !ok:
			return ""
		case doc.IsModified():
			return " [打开*]"
		default:
			return " [打开]"
		}
	}})
}

// Record publishes a command notification for path.
func (w *Workspace) Record(verb, label, path string) {
	w.publish(events.Event{Type: events.EventCommandExecuted, Path: path, Verb: verb, Label: label})
}

// Persist saves the session.
func (w *Workspace) Persist() error {
	if w.keeper == nil {
		return nil
	}
	state := State{Active: w.active}
	for _, path := range w.order {
		doc := w.documents[path]
		state.Documents = append(state.Documents, DocumentState{
			Path:     path,
			Kind:     doc.Kind(),
			Modified: doc.IsModified(),
		})
	}
	if w.logs != nil {
		state.Logging = w.logs.ActivePaths()
	}
	if err := w.keeper.Save(state); err != nil {
		return &IOError{Op: "write", Path: w.keeper.Path(), Err: err}
	}
	return nil
}

// Restore reopens the documents of the previous session with their saved
// kind. Documents whose files are gone are skipped.
func (w *Workspace) Restore() error {
	if w.keeper == nil {
		return nil
	}
	state, err := w.keeper.Load()
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range state.Documents {
		if _, err := w.store.Read(entry.Path); err != nil {
			w.logger.Warn("skipping document from previous session", "path", entry.Path, "err", err)
			continue
		}
		kind, ok := editor.ParseKind(string(entry.Kind))
		if !ok {
			kind = editor.KindText
			if w.cfg.IsXML(entry.Path) {
				kind = editor.KindXML
			}
		}
		doc, err := w.openAs(entry.Path, kind)
		if err != nil {
			w.logger.Warn("cannot reopen document", "path", entry.Path, "err", err)
			continue
		}
		doc.SetModified(entry.Modified)
	}
	if _, ok := w.documents[state.Active]; ok {
		w.setActive(state.Active)
	}
	if w.logs != nil {
		w.logs.Restore(state.Logging)
	}
	return nil
}

func (w *Workspace) add(doc *editor.Document) {
	w.documents[doc.Path()] = doc
	w.order = append(w.order, doc.Path())
	w.setActive(doc.Path())
}

func (w *Workspace) target(path string) (string, *editor.Document, error) {
	if path == "" {
		if w.active == "" {
			return "", nil, ErrNoActiveDocument
		}
		return w.active, w.documents[w.active], nil
	}
	abs, err := w.resolvePath(path)
	if err != nil {
		return "", nil, err
	}
	doc, ok := w.documents[abs]
	if !ok {
		return "", nil, notOpen(path)
	}
	return abs, doc, nil
}

func (w *Workspace) write(doc *editor.Document) error {
	if err := w.store.Write(doc.Path(), []byte(doc.Content())); err != nil {
		return &IOError{Op: "write", Path: doc.Path(), Err: err}
	}
	doc.SetModified(false)
	return nil
}

func (w *Workspace) resolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("路径不能为空")
	}
	expanded := path
	if !filepath.IsAbs(path) {
		expanded = filepath.Join(w.baseDir, path)
	}
	return filepath.Abs(expanded)
}

// setActive moves the active marker, emitting deactivated for the old
// document and activated for the new one.
func (w *Workspace) setActive(path string) {
	prev := w.active
	if prev == path {
		return
	}
	if prev != "" {
		w.publish(events.Event{Type: events.EventDeactivated, Path: prev})
	}
	w.active = path
	if path == "" {
		return
	}
	w.history = slices.DeleteFunc(w.history, func(p string) bool { return p == path })
	w.history = slices.Insert(w.history, 0, path)
	w.publish(events.Event{Type: events.EventActivated, Path: path})
}

func (w *Workspace) applyAutoLog(doc *editor.Document) {
	if enabled, exclude := logging.ParseDirective(doc.LogHeader()); enabled {
		w.enableLog(doc.Path(), exclude)
	}
}

func (w *Workspace) enableLog(path string, exclude []string) {
	if w.logs == nil {
		return
	}
	if err := w.logs.Enable(path, exclude); err != nil {
		w.logger.Warn("cannot enable logging", "path", path, "err", err)
	}
}

func (w *Workspace) publish(evt events.Event) {
	if w.bus == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = w.now()
	}
	w.bus.Publish(evt)
}
