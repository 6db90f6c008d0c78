package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// DiagnosticKind classifies user facing errors.
type DiagnosticKind int

const (
	SyntaxError DiagnosticKind = iota
	DeclarationError
	ContextError
	TypeError
)

func (k DiagnosticKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case DeclarationError:
		return "declaration error"
	case ContextError:
		return "context error"
	case TypeError:
		return "type error"
	}
	return "error"
}

// RelatedInfo points at a second location relevant to a diagnostic, e.g. the first declaration
// of a duplicated name.
type RelatedInfo struct {
	Pos     Pos
	Message string
}

// Diagnostic is the single error a failing compilation reports.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Pos     Pos
	Other   *RelatedInfo
}

func (d *Diagnostic) Error() string {
	if !d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.Col, d.Kind, d.Message)
}

func (d *Diagnostic) withOther(pos Pos, format string, args ...interface{}) *Diagnostic {
	d.Other = &RelatedInfo{Pos: pos, Message: fmt.Sprintf(format, args...)}
	return d
}

func newDiagnostic(kind DiagnosticKind, pos Pos, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// InternalError is a compiler bug, such as unbalanced scopes. It is raised with panic and is
// never rendered as a diagnostic.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Message
}

func internalError(format string, args ...interface{}) {
	panic(&InternalError{Message: fmt.Sprintf(format, args...)})
}

// AsDiagnostic unwraps err into a *Diagnostic.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// RenderOptions controls RenderDiagnostic.
type RenderOptions struct {
	// ContextLines is the number of preceding non-blank lines printed before the error line.
	ContextLines int
	Color        ColorMode
}

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// UseColor decides whether output to f should be colored.
func (mode ColorMode) UseColor(f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RenderDiagnostic writes err with a source snippet and a caret under the failing column.
// Errors that are not diagnostics are written as a single line.
func RenderDiagnostic(w io.Writer, source string, err error, opts RenderOptions) {
	d, ok := AsDiagnostic(err)
	if !ok {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	color := opts.Color == ColorAlways
	if opts.Color == ColorAuto {
		if f, isFile := w.(*os.File); isFile {
			color = opts.Color.UseColor(f)
		}
	}
	lines := strings.Split(source, "\n")
	renderBlock(w, lines, d.Pos, fmt.Sprintf("%s: %s", d.Kind, d.Message), opts.ContextLines, color)
	if d.Other != nil {
		renderBlock(w, lines, d.Other.Pos, "note: "+d.Other.Message, opts.ContextLines, color)
	}
}

func renderBlock(w io.Writer, lines []string, pos Pos, message string, contextLines int, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}
	if !pos.IsValid() || pos.Line > len(lines) {
		fmt.Fprintf(w, "position unavailable\n%s\n", paint(ansiBold+ansiRed, message))
		return
	}
	fmt.Fprintf(w, "%s\n", paint(ansiCyan, fmt.Sprintf("%d:%d", pos.Line, pos.Col)))
	var window []int
	for i := pos.Line - 2; i >= 0 && len(window) < contextLines; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		window = append([]int{i}, window...)
	}
	width := len(fmt.Sprint(pos.Line))
	for _, i := range window {
		fmt.Fprintf(w, "%*d | %s\n", width, i+1, strings.TrimRight(lines[i], "\r"))
	}
	errorLine := strings.TrimRight(lines[pos.Line-1], "\r")
	fmt.Fprintf(w, "%*d | %s\n", width, pos.Line, errorLine)
	fmt.Fprintf(w, "%s | %s%s\n", strings.Repeat(" ", width), caretPadding(errorLine, pos.Col), paint(ansiRed, "^"))
	fmt.Fprintf(w, "%s\n", paint(ansiBold+ansiRed, message))
}

// caretPadding keeps tabs so that the caret lines up with the source line.
func caretPadding(line string, col int) string {
	var b strings.Builder
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
