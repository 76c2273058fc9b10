package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"docedit/src/editor"
	"docedit/src/spellcheck"
	"docedit/src/statistics"
	"docedit/src/workspace"
)

// LogControl toggles and reads per-document command logs.
type LogControl interface {
	Enable(path string, exclude []string) error
	Disable(path string) error
	Enabled(path string) bool
	Excluded(path string) []string
	Show(path string) (string, error)
}

// Stopper stops running timers before the session ends.
type Stopper interface {
	StopAll()
}

var doneMessages = map[string]string{
	"append":        "已追加",
	"insert":        "已插入",
	"delete":        "已删除",
	"replace":       "已替换",
	"insert-before": "已插入元素",
	"append-child":  "已追加子元素",
	"append-root":   "已创建根元素",
	"edit-id":       "已修改元素 ID",
	"edit-text":     "已更新元素文本",
	"set-attr":      "已设置属性",
	"remove-attr":   "已删除属性",
}

const helpText = `可用命令:
工作区
  load <file>                      打开文件
  save [file|all]                  保存文件
  init <text|xml> <file> [with-log] 创建新缓冲区
  close [file]                     关闭文件
  edit <file>                      切换活动文件
  editor-list                      列出打开的文件
  dir-tree [path]                  显示目录树
  undo | redo                      撤销 / 重做
  exit                             退出并保存工作区状态
文本
  append "text"
  insert <line:col> "text"
  delete <line:col> <len>
  replace <line:col> <len> "text"
  show [start:end]
XML
  insert-before <tag> <newId> <targetId> ["text"] [k=v ...]
  append-child <tag> <newId> <parentId> ["text"] [k=v ...]
  append-root <tag> <id> ["text"] [k=v ...]
  edit-id <oldId> <newId>
  edit-text <id> ["text"]
  set-attr <id> <name> "value"
  remove-attr <id> <name>
  delete <id>
  xml-tree
其他
  log-on [file] | log-off [file] | log-show [file]
  spell-check [file]
  help`

// Dispatcher interprets user commands.
type Dispatcher struct {
	ws      *workspace.Workspace
	console *Console
	logs    LogControl
	timers  Stopper
}

// NewDispatcher constructs a dispatcher. logs and timers may be nil.
func NewDispatcher(ws *workspace.Workspace, console *Console, logs LogControl, timers Stopper) *Dispatcher {
	return &Dispatcher{
		ws:      ws,
		console: console,
		logs:    logs,
		timers:  timers,
	}
}

// Run processes interactive commands until exit.
func (d *Dispatcher) Run() {
	for {
		d.console.Prompt()
		line, err := d.console.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if err := d.handleExit(); err != nil {
					d.console.Errorln(err)
				}
				return
			}
			d.console.Println(fmt.Sprintf("读取命令失败: %v", err))
			continue
		}
		exit, err := d.execute(line)
		if err != nil {
			d.console.Errorln(err)
			continue
		}
		if exit {
			return
		}
	}
}

// RunScript executes commands from r line by line. Blank lines and lines
// starting with "//" are skipped. A failing line is reported and the script
// continues; "exit" ends it early.
func (d *Dispatcher) RunScript(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		d.console.Println(d.console.Dim("> " + line))
		exit, err := d.execute(line)
		if err != nil {
			d.console.Errorln(fmt.Errorf("第 %d 行: %w", lineNo, err))
			continue
		}
		if exit {
			return nil
		}
	}
	return scanner.Err()
}

// Execute runs a single command.
func (d *Dispatcher) Execute(raw string) error {
	_, err := d.execute(raw)
	return err
}

func (d *Dispatcher) execute(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	tokens, err := tokenize(raw)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]
	var targetFile string

	switch cmd {
	case "load":
		if len(args) != 1 {
			return false, errors.New("用法: load <file>")
		}
		doc, err := d.ws.Open(args[0])
		if err != nil {
			return false, err
		}
		targetFile = doc.Path()
		d.console.Println("已加载: " + doc.Path())
	case "save":
		switch {
		case len(args) == 1 && strings.ToLower(args[0]) == "all":
			if err := d.ws.SaveAll(); err != nil {
				return false, err
			}
			d.console.Println("已保存全部文件")
		case len(args) <= 1:
			path, err := d.ws.Save(optionalArg(args))
			if err != nil {
				return false, err
			}
			targetFile = path
			d.console.Println("已保存: " + path)
		default:
			return false, errors.New("用法: save [file|all]")
		}
	case "init":
		if len(args) < 2 || len(args) > 3 {
			return false, errors.New("用法: init <text|xml> <file> [with-log]")
		}
		kind, ok := editor.ParseKind(strings.ToLower(args[0]))
		if !ok {
			return false, fmt.Errorf("未知的文件类型: %s", args[0])
		}
		withLog := len(args) == 3 && args[2] == "with-log"
		if len(args) == 3 && !withLog {
			return false, errors.New("用法: init <text|xml> <file> [with-log]")
		}
		doc, err := d.ws.Init(kind, args[1], withLog)
		if err != nil {
			return false, err
		}
		targetFile = doc.Path()
		d.console.Println("已创建缓冲区: " + doc.Path())
	case "close":
		if len(args) > 1 {
			return false, errors.New("用法: close [file]")
		}
		path, err := d.ws.Close(optionalArg(args))
		if err != nil {
			return false, err
		}
		targetFile = path
		d.console.Println("已关闭: " + path)
	case "edit":
		if len(args) != 1 {
			return false, errors.New("用法: edit <file>")
		}
		if err := d.ws.SwitchActive(args[0]); err != nil {
			return false, err
		}
		doc, err := d.ws.Active()
		if err != nil {
			return false, err
		}
		targetFile = doc.Path()
		d.console.Println("已切换活动文件: " + doc.Name())
	case "editor-list":
		d.printEditors()
	case "dir-tree":
		if len(args) > 1 {
			return false, errors.New("用法: dir-tree [path]")
		}
		result, err := d.ws.DirTree(optionalArg(args))
		if err != nil {
			return false, err
		}
		d.console.Println(result)
	case "undo":
		label, err := d.ws.Undo()
		if err != nil {
			return false, err
		}
		d.console.Println("已撤销: " + label)
		return false, nil
	case "redo":
		label, err := d.ws.Redo()
		if err != nil {
			return false, err
		}
		d.console.Println("已重做: " + label)
		return false, nil
	case "spell-check":
		if len(args) > 1 {
			return false, errors.New("用法: spell-check [file]")
		}
		doc, err := d.ws.Document(optionalArg(args))
		if err != nil {
			return false, err
		}
		issues, err := d.ws.SpellCheck(doc.Path())
		if err != nil {
			return false, err
		}
		targetFile = doc.Path()
		d.printIssues(issues)
	case "log-on", "log-off", "log-show":
		path, err := d.resolveFileArg(args)
		if err != nil {
			return false, err
		}
		targetFile = path
		if err := d.handleLog(cmd, path); err != nil {
			return false, err
		}
	case "help":
		d.console.Println(helpText)
		return false, nil
	case "exit":
		if err := d.handleExit(); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, d.dispatchDocument(cmd, args)
	}

	d.ws.Record(cmd, raw, targetFile)
	return false, nil
}

func (d *Dispatcher) dispatchDocument(verb string, args []string) error {
	if !workspace.IsDocumentVerb(verb) {
		return fmt.Errorf("%w: %s", workspace.ErrUnknownVerb, verb)
	}
	result, err := d.ws.Dispatch(verb, args)
	if err != nil {
		return err
	}
	if msg, ok := doneMessages[result.Verb]; ok && result.Lines == nil {
		d.console.Println(msg)
		return nil
	}
	if len(result.Lines) == 0 {
		d.console.Println("(空文档)")
		return nil
	}
	d.console.Println(strings.Join(result.Lines, "\n"))
	return nil
}

func (d *Dispatcher) handleLog(cmd, path string) error {
	if d.logs == nil {
		return errors.New("日志功能未启用")
	}
	switch cmd {
	case "log-on":
		if err := d.logs.Enable(path, nil); err != nil {
			return err
		}
		d.console.Println("已开启日志")
	case "log-off":
		if !d.logs.Enabled(path) {
			return fmt.Errorf("日志未开启: %s", path)
		}
		if err := d.logs.Disable(path); err != nil {
			return err
		}
		d.console.Println("已关闭日志")
	default:
		content, err := d.logs.Show(path)
		if err != nil {
			return err
		}
		if excluded := d.logs.Excluded(path); len(excluded) > 0 {
			d.console.Println(d.console.Dim("已排除: " + strings.Join(excluded, ", ")))
		}
		d.console.Println(content)
	}
	return nil
}

func (d *Dispatcher) resolveFileArg(args []string) (string, error) {
	if len(args) > 1 {
		return "", errors.New("命令参数过多")
	}
	doc, err := d.ws.Document(optionalArg(args))
	if err != nil {
		return "", err
	}
	return doc.Path(), nil
}

func (d *Dispatcher) printEditors() {
	infos := d.ws.List()
	if len(infos) == 0 {
		d.console.Println("(没有打开的文件)")
		return
	}
	for _, info := range infos {
		activeMark := " "
		if info.Active {
			activeMark = d.console.Active("*")
		}
		line := fmt.Sprintf("%s %s", activeMark, info.Name)
		if info.Modified {
			line += " [modified]"
		}
		line += d.console.Dim(fmt.Sprintf(" (%s)", statistics.FormatDuration(info.Duration)))
		d.console.Println(line)
	}
}

func (d *Dispatcher) printIssues(issues []spellcheck.Issue) {
	if len(issues) == 0 {
		d.console.Println("未发现拼写错误")
		return
	}
	d.console.Println(fmt.Sprintf("发现 %d 处拼写问题:", len(issues)))
	for _, issue := range issues {
		line := fmt.Sprintf("  %s: %q", issue.Location(), issue.Word)
		if len(issue.Suggestions) > 0 {
			line += " 建议: " + strings.Join(issue.Suggestions, ", ")
		}
		d.console.Println(line)
	}
}

func (d *Dispatcher) handleExit() error {
	for _, info := range d.ws.List() {
		if !info.Modified {
			continue
		}
		save, err := d.console.ConfirmSave(info.Path)
		if err != nil {
			return err
		}
		if save {
			if _, err := d.ws.Save(info.Path); err != nil {
				return err
			}
		}
	}
	if d.timers != nil {
		d.timers.StopAll()
	}
	if err := d.ws.Persist(); err != nil {
		return err
	}
	d.console.Println("已退出并保存工作区状态")
	return nil
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// tokenize splits a command line on blanks. Double quotes group words and
// may produce an empty token; \n, \t, \" and \\ are unescaped.
func tokenize(line string) ([]string, error) {
	var tokens []string
	var builder strings.Builder
	inQuotes := false
	tokenReady := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch ch {
		case '\\':
			if i+1 < len(line) {
				if unescaped, ok := escapes[line[i+1]]; ok {
					builder.WriteByte(unescaped)
					i++
					continue
				}
			}
			builder.WriteByte(ch)
		case '"':
			if inQuotes {
				inQuotes = false
				if builder.Len() == 0 {
					tokenReady = true
				}
			} else {
				inQuotes = true
			}
		case ' ', '\t':
			if inQuotes {
				builder.WriteByte(ch)
			} else if builder.Len() > 0 || tokenReady {
				tokens = append(tokens, builder.String())
				builder.Reset()
				tokenReady = false
			}
		default:
			builder.WriteByte(ch)
			tokenReady = false
		}
	}
	if inQuotes {
		return nil, errors.New("缺少匹配的引号")
	}
	if builder.Len() > 0 || tokenReady {
		tokens = append(tokens, builder.String())
	}
	return tokens, nil
}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'"':  '"',
	'\\': '\\',
}
