package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	styleInfo   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleNoop   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleAdd    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleChange = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleInfoPrefix  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true) // blue
	styleWarnPrefix  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true) // yellow
	styleErrorPrefix = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red

	styleSectionTitle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#3478F6", Dark: "#4A9EFF"})

	styleKey = lipgloss.NewStyle().Faint(true)

	styleItalicName = lipgloss.NewStyle().Italic(true)
)

// Italic renders s in italic style (used for file and field names).
func Italic(s string) string {
	return styleItalicName.Render(s)
}

// ChangeType classifies a line of command output.
type ChangeType int

const (
	Info ChangeType = iota
	Noop
	Add
	Change
)

// DiffLine is one rendered item of a section.
type DiffLine struct {
	Type    ChangeType
	Message string
}

func (d DiffLine) String() string {
	return d.Message
}

func Line(t ChangeType, format string, a ...any) DiffLine {
	return DiffLine{Type: t, Message: fmt.Sprintf(format, a...)}
}

// Changed renders "name: from → to", or a no-op line when nothing changed.
func Changed(name, from, to string) DiffLine {
	if from == to {
		return Line(Noop, "%s: %s", name, to)
	}
	if from == "" {
		return Line(Add, "%s: %s", name, to)
	}
	return Line(Change, "%s: %s → %s", name, from, to)
}

// Section is a header and its items.
type Section struct {
	Title string
	Items []DiffLine
}

// KV is one aligned key/value row.
type KV struct {
	Key   string
	Value string
}

// RenderSectionedList renders sections with simple headers and two-space
// indented items. Empty sections are skipped.
func RenderSectionedList(sections []Section) string {
	var result strings.Builder
	first := true
	for _, section := range sections {
		if len(section.Items) == 0 {
			continue
		}
		if !first {
			result.WriteString("\n")
		}
		first = false
		result.WriteString(styleSectionTitle.Render(section.Title))
		result.WriteString("\n")
		for _, item := range section.Items {
			result.WriteString("  ")
			if item.Type != Info {
				result.WriteString(iconFor(item.Type))
				result.WriteString(" ")
			}
			result.WriteString(item.Message)
			result.WriteString("\n")
		}
	}
	return result.String()
}

// RenderTable renders a titled block of key/value rows with the keys padded
// to the widest one.
func RenderTable(title string, rows []KV) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, r := range rows {
		if len(r.Key) > width {
			width = len(r.Key)
		}
	}
	var b strings.Builder
	if title != "" {
		b.WriteString(styleSectionTitle.Render(title))
		b.WriteString("\n")
	}
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(styleKey.Render(r.Key + ":" + strings.Repeat(" ", width-len(r.Key))))
		b.WriteString(" ")
		b.WriteString(r.Value)
		b.WriteString("\n")
	}
	return b.String()
}

func iconFor(t ChangeType) string {
	switch t {
	case Info:
		return styleInfo.Render("")
	case Noop:
		return styleNoop.Render("✓")
	case Add:
		return styleAdd.Render("↑")
	case Change:
		return styleChange.Render("→")
	default:
		return ""
	}
}

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI color codes for snapshot testing when needed.
func StripANSI(s string) string {
	return ansiRegexp.ReplaceAllString(s, "")
}

// clearCurrentLineIfTTY clears the current terminal line when writing to a TTY.
func clearCurrentLineIfTTY(w io.Writer) {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		_, _ = fmt.Fprint(w, "\r\x1b[2K")
	}
}

// Printer centralizes user-facing output. It routes informational messages to
// stdout and warnings/errors to stderr.
type Printer interface {
	// Plain writes to stdout without any prefix or styling.
	Plain(format string, a ...any)
	// Info writes to stdout with an [info] prefix.
	Info(format string, a ...any)
	// Warn writes to stderr with a [warn] prefix.
	Warn(format string, a ...any)
	// Error writes to stderr with an [error] prefix.
	Error(format string, a ...any)
}

// StdPrinter writes Info to Out and Warn/Error to Err.
type StdPrinter struct {
	Out io.Writer
	Err io.Writer
}

func (p StdPrinter) Plain(format string, a ...any) {
	if p.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(p.Out, format+"\n", a...)
}

func (p StdPrinter) Info(format string, a ...any) {
	if p.Out == nil {
		return
	}
	clearCurrentLineIfTTY(p.Out)
	prefix := styleInfoPrefix.Render("[info]")
	_, _ = fmt.Fprintf(p.Out, "%s "+format+"\n", append([]any{prefix}, a...)...)
}

func (p StdPrinter) Warn(format string, a ...any) {
	if p.Err == nil {
		return
	}
	clearCurrentLineIfTTY(p.Err)
	prefix := styleWarnPrefix.Render("[warn]")
	_, _ = fmt.Fprintf(p.Err, "%s "+format+"\n", append([]any{prefix}, a...)...)
}

func (p StdPrinter) Error(format string, a ...any) {
	if p.Err == nil {
		return
	}
	clearCurrentLineIfTTY(p.Err)
	prefix := styleErrorPrefix.Render("[error]")
	_, _ = fmt.Fprintf(p.Err, "%s "+format+"\n", append([]any{prefix}, a...)...)
}

// NoopPrinter discards all output; useful as a default or in tests.
type NoopPrinter struct{}

func (NoopPrinter) Plain(string, ...any) {}
func (NoopPrinter) Info(string, ...any)  {}
func (NoopPrinter) Warn(string, ...any)  {}
func (NoopPrinter) Error(string, ...any) {}

// SectionTitle renders a bold section header for grouped output.
func SectionTitle(title string) string {
	return styleSectionTitle.Render(title)
}
