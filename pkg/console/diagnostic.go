package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/githubnext/rulecheck/pkg/validation"
)

// Severity of a rendered diagnostic
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// contextRadius is the number of source lines shown on each side of a diagnostic
const contextRadius = 1

// Diagnostic is a message anchored to a position in a rule file
type Diagnostic struct {
	File         string
	Line         int // 1-based; 0 when unknown
	Column       int // 1-based; 0 when unknown
	Severity     Severity
	Code         string
	Message      string
	Context      []string // source lines around Line
	ContextStart int      // line number of Context[0]; 0 centers Context on Line
	Hint         string
}

var (
	highlightStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF5555")).
			Foreground(lipgloss.Color("#282A36"))

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#50FA7B"))
)

// FromValidationError builds a diagnostic for err, taking context lines from raw
// when the error carries a line number
func FromValidationError(file, raw string, err validation.ValidationError) Diagnostic {
	d := Diagnostic{
		File:     file,
		Severity: SeverityError,
		Code:     err.Code,
		Message:  err.Message,
		Hint:     hintFor(err),
	}
	if line, ok := err.Line(); ok {
		d.Line = line
		d.Context, d.ContextStart = ContextLines(raw, line, contextRadius)
	}
	return d
}

// ContextLines returns up to radius lines on each side of line together with the
// line number of the first returned line
func ContextLines(raw string, line, radius int) ([]string, int) {
	if raw == "" || line < 1 {
		return nil, 0
	}
	lines := strings.Split(raw, "\n")
	if line > len(lines) {
		return nil, 0
	}
	start := max(line-1-radius, 0)
	end := min(line+radius, len(lines))
	return lines[start:end], start + 1
}

func hintFor(err validation.ValidationError) string {
	switch err.Type {
	case validation.TypeAdditionalProperties:
		return "remove the property or check it for typos"
	case validation.TypeOneOf:
		return "check the 'type' discriminator of this node"
	}
	return ""
}

// FormatDiagnostic renders a diagnostic in an IDE-parseable "file:line:column:" form,
// followed by numbered source context
func FormatDiagnostic(d Diagnostic) string {
	var output strings.Builder

	typeStyle := errorStyle
	prefix := string(d.Severity)
	switch d.Severity {
	case SeverityWarning:
		typeStyle = warningStyle
	case SeverityInfo:
		typeStyle = infoStyle
	default:
		prefix = string(SeverityError)
	}

	if d.File != "" {
		location := ToRelativePath(d.File)
		if d.Line > 0 {
			column := d.Column
			if column < 1 {
				column = 1
			}
			location = fmt.Sprintf("%s:%d:%d", location, d.Line, column)
		}
		output.WriteString(applyStyle(filePathStyle, location+":"))
		output.WriteString(" ")
	}

	output.WriteString(applyStyle(typeStyle, prefix+":"))
	output.WriteString(" ")
	output.WriteString(d.Message)
	if d.Code != "" {
		output.WriteString(" ")
		output.WriteString(applyStyle(mutedStyle, "["+d.Code+"]"))
	}
	output.WriteString("\n")

	if len(d.Context) > 0 && d.Line > 0 {
		output.WriteString(renderContext(d))
	}

	if d.Hint != "" {
		output.WriteString(applyStyle(hintStyle, "hint: "))
		output.WriteString(d.Hint)
		output.WriteString("\n")
	}

	return output.String()
}

// renderContext renders source lines with line numbers, highlighting the diagnostic line
func renderContext(d Diagnostic) string {
	var output strings.Builder

	first := d.ContextStart
	if first == 0 {
		first = d.Line - len(d.Context)/2
	}
	width := len(fmt.Sprintf("%d", first+len(d.Context)-1))

	for i, line := range d.Context {
		lineNum := first + i
		if lineNum < 1 {
			continue
		}

		output.WriteString(applyStyle(mutedStyle, fmt.Sprintf("%*d", width, lineNum)))
		output.WriteString(" | ")
		if lineNum == d.Line {
			output.WriteString(applyStyle(highlightStyle, line))
		} else {
			output.WriteString(applyStyle(textStyle, line))
		}
		output.WriteString("\n")

		if lineNum == d.Line && d.Column > 0 {
			output.WriteString(strings.Repeat(" ", width+3+d.Column-1))
			output.WriteString(applyStyle(errorStyle, "^"))
			output.WriteString("\n")
		}
	}

	return output.String()
}
