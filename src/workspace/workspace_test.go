package workspace_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docedit/src/config"
	"docedit/src/editor"
	"docedit/src/events"
	"docedit/src/logging"
	"docedit/src/spellcheck"
	"docedit/src/workspace"
)

const base = "/ws"

type memStore struct {
	files map[string]string
	fail  error
}

func newMemStore() *memStore {
	return &memStore{files: map[string]string{}}
}

func (m *memStore) Read(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}
	return []byte(data), nil
}

func (m *memStore) Write(path string, data []byte) error {
	if m.fail != nil {
		return m.fail
	}
	m.files[path] = string(data)
	return nil
}

type recorder struct {
	events []events.Event
}

func (r *recorder) Handle(evt events.Event) error {
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) summary() []string {
	var out []string
	for _, evt := range r.events {
		out = append(out, fmt.Sprintf("%s %s %s", evt.Type, filepath.Base(evt.Path), evt.Verb))
	}
	return out
}

func (r *recorder) reset() {
	r.events = nil
}

type fakeLogs struct {
	enabled  map[string][]string
	restored []string
}

func (f *fakeLogs) Enable(path string, exclude []string) error {
	if f.enabled == nil {
		f.enabled = map[string][]string{}
	}
	f.enabled[path] = exclude
	return nil
}

func (f *fakeLogs) ActivePaths() []string {
	var out []string
	for path := range f.enabled {
		out = append(out, path)
	}
	return out
}

func (f *fakeLogs) Restore(paths []string) {
	f.restored = paths
}

type answer bool

func (a answer) ConfirmSave(string) (bool, error) {
	return bool(a), nil
}

func newWorkspace(t *testing.T, store *memStore, opts ...workspace.Option) (*workspace.Workspace, *recorder) {
	t.Helper()
	bus := events.NewBus(nil)
	rec := &recorder{}
	bus.Subscribe(rec)
	fixed := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]workspace.Option{
		workspace.WithStore(store),
		workspace.WithClock(func() time.Time { return fixed }),
	}, opts...)
	return workspace.NewWorkspace(base, config.Default(), bus, opts...), rec
}

func TestOpenMissingFileStartsModifiedBuffer(t *testing.T) {
	ws, rec := newWorkspace(t, newMemStore())

	doc, err := ws.Open("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "/ws/notes.txt", doc.Path())
	assert.Equal(t, editor.KindText, doc.Kind())
	assert.True(t, doc.IsModified())
	assert.Equal(t, []string{"activated notes.txt "}, rec.summary())
}

func TestOpenPicksKindByExtension(t *testing.T) {
	store := newMemStore()
	store.files["/ws/lib.xml"] = editor.XMLDeclaration + "\n" +
		`<library id="root"><book id="b1">Go</book></library>`
	ws, _ := newWorkspace(t, store)

	doc, err := ws.Open("lib.xml")
	require.NoError(t, err)
	assert.Equal(t, editor.KindXML, doc.Kind())
	assert.False(t, doc.IsModified())

	res, err := ws.Dispatch("xml-tree", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`library [id="root"]`,
		`└── book [id="b1"]`,
		`    └── "Go"`,
	}, res.Lines)
}

func TestOpenRejectsMalformedXML(t *testing.T) {
	store := newMemStore()
	store.files["/ws/bad.xml"] = `<a id="x"><b id="x"/></a>`
	ws, _ := newWorkspace(t, store)

	_, err := ws.Open("bad.xml")
	require.ErrorIs(t, err, editor.ErrDuplicateID)
	_, err = ws.Active()
	assert.ErrorIs(t, err, workspace.ErrNoActiveDocument)
}

func TestDispatchTextVerbs(t *testing.T) {
	ws, rec := newWorkspace(t, newMemStore())
	_, err := ws.Open("a.txt")
	require.NoError(t, err)
	rec.reset()

	steps := []struct {
		verb  string
		args  []string
		label string
	}{
		{"append", []string{"Hello"}, `append "Hello"`},
		{"insert", []string{"1:6", " World"}, `insert 1:6 " World"`},
		{"replace", []string{"1:1", "5", "Bye"}, `replace 1:1 5 "Bye"`},
		{"delete", []string{"1:4", "6"}, "delete 1:4 6"},
	}
	for _, step := range steps {
		res, err := ws.Dispatch(step.verb, step.args)
		require.NoError(t, err, step.verb)
		assert.Equal(t, step.label, res.Label)
	}

	doc, err := ws.Active()
	require.NoError(t, err)
	assert.Equal(t, "Bye", doc.Content())
	assert.Equal(t, []string{
		"command_executed a.txt append",
		"command_executed a.txt insert",
		"command_executed a.txt replace",
		"command_executed a.txt delete",
	}, rec.summary())
	assert.Equal(t, `delete 1:4 6`, rec.events[3].Label)
}

func TestDispatchShowLeavesHistoryAlone(t *testing.T) {
	store := newMemStore()
	store.files["/ws/a.txt"] = "one\ntwo\nthree"
	ws, _ := newWorkspace(t, store)
	doc, err := ws.Open("a.txt")
	require.NoError(t, err)

	res, err := ws.Dispatch("show", []string{"2:3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2: two", "3: three"}, res.Lines)

	res, err = ws.Dispatch("show", nil)
	require.NoError(t, err)
	assert.Len(t, res.Lines, 3)
	assert.Zero(t, doc.UndoCount())
	assert.False(t, doc.IsModified())

	_, err = ws.Dispatch("show", []string{"5:6"})
	assert.ErrorIs(t, err, editor.ErrLineOutOfRange)
}

func TestDispatchErrors(t *testing.T) {
	store := newMemStore()
	ws, _ := newWorkspace(t, store)

	_, err := ws.Dispatch("append", []string{"x"})
	require.ErrorIs(t, err, workspace.ErrNoActiveDocument)

	_, err = ws.Open("a.txt")
	require.NoError(t, err)

	cases := []struct {
		verb string
		args []string
		want error
	}{
		{"append-child", []string{"book", "b1", "root"}, editor.ErrWrongDocumentKind},
		{"xml-tree", nil, editor.ErrWrongDocumentKind},
		{"frobnicate", nil, workspace.ErrUnknownVerb},
		{"insert", []string{"1:1"}, workspace.ErrUsage},
		{"insert", []string{"x", "y"}, workspace.ErrUsage},
		{"delete", []string{"1:1", "many"}, workspace.ErrUsage},
		{"insert", []string{"3:1", "y"}, editor.ErrLineOutOfRange},
	}
	for _, tc := range cases {
		_, err := ws.Dispatch(tc.verb, tc.args)
		assert.ErrorIs(t, err, tc.want, "%s %v", tc.verb, tc.args)
	}

	doc, err := ws.Active()
	require.NoError(t, err)
	assert.Zero(t, doc.UndoCount())
}

func TestDispatchXMLVerbs(t *testing.T) {
	ws, _ := newWorkspace(t, newMemStore())
	_, err := ws.Init(editor.KindXML, "books.xml", false)
	require.NoError(t, err)

	run := func(verb string, args ...string) workspace.Result {
		t.Helper()
		res, err := ws.Dispatch(verb, args)
		require.NoError(t, err, verb)
		return res
	}
	run("append-root", "bookstore", "store")
	res := run("append-child", "book", "book1", "store", "category=COOKING", "lang=en")
	assert.Equal(t, `append-child book book1 store "" category=COOKING lang=en`, res.Label)
	run("append-child", "title", "title1", "book1", "Everyday Italian")
	run("insert-before", "book", "book0", "book1", "Intro")
	run("set-attr", "book1", "category", "CHILDREN")
	run("remove-attr", "book1", "lang")
	run("edit-id", "book0", "preface")
	run("edit-text", "preface")
	run("delete-element", "title1")

	doc, err := ws.Active()
	require.NoError(t, err)
	tree, err := doc.Tree()
	require.NoError(t, err)
	assert.Equal(t, []string{"book1", "preface", "store"}, tree.IDs())
	book, ok := tree.Lookup("book1")
	require.True(t, ok)
	assert.Equal(t, []editor.Attribute{{Name: "category", Value: "CHILDREN"}}, book.Attrs)

	_, err = ws.Dispatch("append", []string{"x"})
	assert.ErrorIs(t, err, editor.ErrWrongDocumentKind)
	_, err = ws.Dispatch("append-child", []string{"x", "y", "store", "text", "bad"})
	assert.ErrorIs(t, err, workspace.ErrUsage)
	_, err = ws.Dispatch("edit-id", []string{"store", "preface"})
	assert.ErrorIs(t, err, editor.ErrDuplicateID)

	for range 9 {
		_, err := ws.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"root"}, tree.IDs())
	_, err = ws.Undo()
	assert.ErrorIs(t, err, editor.ErrNothingToUndo)
}

func TestUndoRedoPublishEvents(t *testing.T) {
	ws, rec := newWorkspace(t, newMemStore())
	_, err := ws.Open("a.txt")
	require.NoError(t, err)
	_, err = ws.Dispatch("append", []string{"x"})
	require.NoError(t, err)
	rec.reset()

	label, err := ws.Undo()
	require.NoError(t, err)
	assert.Equal(t, `append "x"`, label)
	label, err = ws.Redo()
	require.NoError(t, err)
	assert.Equal(t, `append "x"`, label)
	_, err = ws.Redo()
	assert.ErrorIs(t, err, editor.ErrNothingToRedo)

	assert.Equal(t, []string{
		"command_executed a.txt undo",
		"command_executed a.txt redo",
	}, rec.summary())
	assert.Equal(t, `append "x"`, rec.events[0].Label)
	assert.Equal(t, `append "x"`, rec.events[1].Label)
}

func TestXMLTreeBetweenUndoAndRedo(t *testing.T) {
	ws, _ := newWorkspace(t, newMemStore())
	doc, err := ws.Init(editor.KindXML, "books.xml", false)
	require.NoError(t, err)
	tree, err := doc.Tree()
	require.NoError(t, err)

	steps := [][]string{
		{"append-root", "bookstore", "store"},
		{"append-child", "book", "b1", "store", "Go", "lang=en"},
		{"insert-before", "book", "b0", "b1"},
		{"set-attr", "b0", "lang", "zh"},
	}
	var snapshots []editor.Node
	var ids [][]string
	for _, step := range steps {
		_, err := ws.Dispatch(step[0], step[1:])
		require.NoError(t, err, step[0])
		snapshots = append(snapshots, tree.Snapshot())
		ids = append(ids, tree.IDs())
	}
	for range steps {
		_, err := ws.Undo()
		require.NoError(t, err)
	}

	for i := range steps {
		before, err := ws.Dispatch("xml-tree", nil)
		require.NoError(t, err)
		assert.Equal(t, len(steps)-i, doc.RedoCount())
		assert.Equal(t, i, doc.UndoCount())

		_, err = ws.Redo()
		require.NoError(t, err)
		assert.Equal(t, snapshots[i], tree.Snapshot(), "redo %d", i)
		assert.Equal(t, ids[i], tree.IDs(), "redo %d", i)

		after, err := ws.Dispatch("xml-tree", nil)
		require.NoError(t, err)
		assert.NotEqual(t, before.Lines, after.Lines)
	}
	_, err = ws.Redo()
	assert.ErrorIs(t, err, editor.ErrNothingToRedo)
}

func TestSwitchAndCloseFollowRecentUse(t *testing.T) {
	ws, rec := newWorkspace(t, newMemStore())
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := ws.Open(name)
		require.NoError(t, err)
	}
	require.NoError(t, ws.SwitchActive("a.txt"))
	rec.reset()

	closed, err := ws.Close("")
	require.NoError(t, err)
	assert.Equal(t, "/ws/a.txt", closed)
	assert.Equal(t, []string{
		"deactivated a.txt ",
		"closed a.txt ",
		"activated c.txt ",
	}, rec.summary())

	var names []string
	for _, info := range ws.List() {
		names = append(names, fmt.Sprintf("%s active=%t", info.Name, info.Active))
	}
	assert.Equal(t, []string{"b.txt active=false", "c.txt active=true"}, names)

	require.ErrorIs(t, ws.SwitchActive("a.txt"), workspace.ErrNoSuchDocument)
	_, err = ws.Close("zzz.txt")
	assert.ErrorIs(t, err, workspace.ErrNoSuchDocument)
}

func TestCloseLastDocumentLeavesNoActive(t *testing.T) {
	ws, _ := newWorkspace(t, newMemStore())
	_, err := ws.Open("a.txt")
	require.NoError(t, err)
	_, err = ws.Close("a.txt")
	require.NoError(t, err)
	_, err = ws.Active()
	assert.ErrorIs(t, err, workspace.ErrNoActiveDocument)
	assert.Empty(t, ws.List())
}

func TestCloseAsksBeforeDiscarding(t *testing.T) {
	for _, save := range []bool{true, false} {
		t.Run(fmt.Sprint(save), func(t *testing.T) {
			store := newMemStore()
			ws, _ := newWorkspace(t, store, workspace.WithDecider(answer(save)))
			_, err := ws.Open("a.txt")
			require.NoError(t, err)
			_, err = ws.Dispatch("append", []string{"kept?"})
			require.NoError(t, err)

			_, err = ws.Close("a.txt")
			require.NoError(t, err)
			content, written := store.files["/ws/a.txt"]
			assert.Equal(t, save, written)
			if save {
				assert.Equal(t, "kept?", content)
			}
		})
	}
}

func TestSaveFailureKeepsDocumentModified(t *testing.T) {
	store := newMemStore()
	ws, _ := newWorkspace(t, store)
	doc, err := ws.Open("a.txt")
	require.NoError(t, err)
	_, err = ws.Dispatch("append", []string{"x"})
	require.NoError(t, err)

	store.fail = errors.New("disk full")
	_, err = ws.Save("")
	var ioErr *workspace.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
	assert.Equal(t, "/ws/a.txt", ioErr.Path)
	assert.True(t, doc.IsModified())

	store.fail = nil
	path, err := ws.Save("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/ws/a.txt", path)
	assert.False(t, doc.IsModified())
	assert.Equal(t, "x", store.files["/ws/a.txt"])
}

func TestSaveAllWritesEveryDocument(t *testing.T) {
	store := newMemStore()
	ws, _ := newWorkspace(t, store)
	_, err := ws.Open("a.txt")
	require.NoError(t, err)
	_, err = ws.Init(editor.KindXML, "b.xml", false)
	require.NoError(t, err)

	require.NoError(t, ws.SaveAll())
	assert.Equal(t, "", store.files["/ws/a.txt"])
	assert.Contains(t, store.files["/ws/b.xml"], `<root id="root"`)
	for _, info := range ws.List() {
		assert.False(t, info.Modified, info.Name)
	}
}

func TestInit(t *testing.T) {
	store := newMemStore()
	store.files["/ws/exists.txt"] = "already here"
	logs := &fakeLogs{}
	ws, _ := newWorkspace(t, store, workspace.WithLogSwitch(logs))

	_, err := ws.Init(editor.KindText, "exists.txt", false)
	require.ErrorIs(t, err, workspace.ErrDocumentExists)

	doc, err := ws.Init(editor.KindText, "fresh.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "# log", doc.Content())
	assert.True(t, doc.IsModified())
	assert.Contains(t, logs.enabled, "/ws/fresh.txt")

	_, err = ws.Init(editor.KindText, "fresh.txt", false)
	assert.ErrorIs(t, err, workspace.ErrDocumentExists)

	xmlDoc, err := ws.Init(editor.KindXML, "fresh.xml", true)
	require.NoError(t, err)
	assert.Equal(t, "# log", xmlDoc.LogHeader())
	assert.Contains(t, logs.enabled, "/ws/fresh.xml")
}

func TestOpenHonoursLogDirective(t *testing.T) {
	store := newMemStore()
	store.files["/ws/a.txt"] = "# log -e show -e append\nbody"
	store.files["/ws/b.txt"] = "plain"
	logs := &fakeLogs{}
	ws, _ := newWorkspace(t, store, workspace.WithLogSwitch(logs))

	_, err := ws.Open("a.txt")
	require.NoError(t, err)
	_, err = ws.Open("b.txt")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"/ws/a.txt": {"show", "append"}}, logs.enabled)
}

func TestSpellCheckActiveDocument(t *testing.T) {
	store := newMemStore()
	store.files["/ws/a.txt"] = "We recieve mail"
	service := spellcheck.NewService(spellcheck.NewSimpleChecker("we", "mail"))

	plain, _ := newWorkspace(t, store)
	_, err := plain.Open("a.txt")
	require.NoError(t, err)
	_, err = plain.SpellCheck("")
	require.ErrorIs(t, err, workspace.ErrNoSpellChecker)

	ws, _ := newWorkspace(t, store, workspace.WithSpellService(service))
	_, err = ws.Open("a.txt")
	require.NoError(t, err)
	issues, err := ws.SpellCheck("")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "recieve", issues[0].Word)
	assert.Equal(t, 4, issues[0].Column)
}

func TestPersistAndRestore(t *testing.T) {
	dir := t.TempDir()
	keeper := workspace.NewStateKeeper(filepath.Join(dir, ".editor_workspace"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))

	logs := &fakeLogs{}
	first := workspace.NewWorkspace(dir, config.Default(), events.NewBus(nil),
		workspace.WithStateKeeper(keeper), workspace.WithLogSwitch(logs))
	_, err := first.Open("a.txt")
	require.NoError(t, err)
	_, err = first.Dispatch("append", []string{"beta"})
	require.NoError(t, err)
	_, err = first.Open("gone.txt")
	require.NoError(t, err)
	require.NoError(t, first.SwitchActive("a.txt"))
	require.NoError(t, logs.Enable(filepath.Join(dir, "a.txt"), nil))
	require.NoError(t, first.Persist())

	restoredLogs := &fakeLogs{}
	second := workspace.NewWorkspace(dir, config.Default(), events.NewBus(nil),
		workspace.WithStateKeeper(keeper), workspace.WithLogSwitch(restoredLogs))
	require.NoError(t, second.Restore())

	infos := second.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "a.txt", infos[0].Name)
	assert.True(t, infos[0].Modified)
	assert.True(t, infos[0].Active)
	doc, err := second.Active()
	require.NoError(t, err)
	assert.Equal(t, "alpha", doc.Content())
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, restoredLogs.restored)
}

func TestRestoreWithoutStateFile(t *testing.T) {
	dir := t.TempDir()
	ws := workspace.NewWorkspace(dir, config.Default(), nil,
		workspace.WithStateKeeper(workspace.NewStateKeeper(filepath.Join(dir, "missing"))))
	require.NoError(t, ws.Restore())
	assert.Empty(t, ws.List())
}

func TestDirTreeMarksOpenDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("y"), 0o644))
	ws := workspace.NewWorkspace(dir, config.Default(), nil)
	_, err := ws.Open("a.txt")
	require.NoError(t, err)

	out, err := ws.DirTree("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir)+"\n├── a.txt [打开]\n└── b.txt", out)
}

func TestRestoreKeepsLogDirectiveExclusions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("# log -e append\nbody"), 0o644))
	keeper := workspace.NewStateKeeper(filepath.Join(dir, ".editor_workspace"))

	first := workspace.NewWorkspace(dir, config.Default(), events.NewBus(nil),
		workspace.WithStateKeeper(keeper), workspace.WithLogSwitch(logging.NewManager()))
	_, err := first.Open("a.txt")
	require.NoError(t, err)
	require.NoError(t, first.Persist())

	logs := logging.NewManager()
	bus := events.NewBus(nil)
	bus.Subscribe(logs)
	second := workspace.NewWorkspace(dir, config.Default(), bus,
		workspace.WithStateKeeper(keeper), workspace.WithLogSwitch(logs))
	require.NoError(t, second.Restore())
	assert.Equal(t, []string{"append"}, logs.Excluded(path))

	_, err = second.Dispatch("append", []string{"secret"})
	require.NoError(t, err)
	_, err = second.Dispatch("insert", []string{"2:1", ">"})
	require.NoError(t, err)

	content, err := logs.Show(path)
	require.NoError(t, err)
	assert.NotContains(t, content, "secret")
	assert.Contains(t, content, `insert 2:1 ">"`)
}

func TestRestoreUsesSavedKind(t *testing.T) {
	dir := t.TempDir()
	keeper := workspace.NewStateKeeper(filepath.Join(dir, ".editor_workspace"))

	first := workspace.NewWorkspace(dir, config.Default(), nil, workspace.WithStateKeeper(keeper))
	_, err := first.Init(editor.KindXML, "catalog.data", false)
	require.NoError(t, err)
	_, err = first.Dispatch("append-root", []string{"catalog", "cat1"})
	require.NoError(t, err)
	require.NoError(t, first.SaveAll())
	require.NoError(t, first.Persist())

	second := workspace.NewWorkspace(dir, config.Default(), nil, workspace.WithStateKeeper(keeper))
	require.NoError(t, second.Restore())
	doc, err := second.Active()
	require.NoError(t, err)
	assert.Equal(t, editor.KindXML, doc.Kind())
	tree, err := doc.Tree()
	require.NoError(t, err)
	assert.Equal(t, "cat1", tree.RootID())
}
