package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Console wraps standard IO for prompting.
type Console struct {
	reader *bufio.Reader
	writer io.Writer

	promptStyle lipgloss.Style
	errorStyle  lipgloss.Style
	activeStyle lipgloss.Style
	dimStyle    lipgloss.Style
}

// NewConsole constructs a console facade. Styling is dropped automatically
// when out is not a terminal.
func NewConsole(in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		reader:      bufio.NewReader(in),
		writer:      out,
		promptStyle: r.NewStyle().Foreground(lipgloss.Color("170")).Bold(true),
		errorStyle:  r.NewStyle().Foreground(lipgloss.Color("196")),
		activeStyle: r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		dimStyle:    r.NewStyle().Foreground(lipgloss.Color("242")),
	}
}

// ReadLine reads a line without newline characters.
func (c *Console) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Print writes raw text.
func (c *Console) Print(text string) {
	fmt.Fprint(c.writer, text)
}

// Println writes a line with newline.
func (c *Console) Println(text string) {
	fmt.Fprintln(c.writer, text)
}

// Prompt writes the input prompt.
func (c *Console) Prompt() {
	c.Print(c.promptStyle.Render(">") + " ")
}

// Errorln reports a failed command.
func (c *Console) Errorln(err error) {
	c.Println(c.errorStyle.Render(fmt.Sprintf("错误: %v", err)))
}

// Active highlights the marker of the active document.
func (c *Console) Active(text string) string {
	return c.activeStyle.Render(text)
}

// Dim renders secondary information.
func (c *Console) Dim(text string) string {
	return c.dimStyle.Render(text)
}

// ConfirmSave prompts user for saving decision.
func (c *Console) ConfirmSave(path string) (bool, error) {
	for {
		c.Print(fmt.Sprintf("文件已修改，是否保存? (y/n) [%s]: ", path))
		answer, err := c.ReadLine()
		if err != nil {
			return false, err
		}
		answer = strings.TrimSpace(strings.ToLower(answer))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			c.Println("请输入 y 或 n")
		}
	}
}
