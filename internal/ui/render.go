package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/activebook/lulu/data"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const (
	UserLabel      = "you"
	AssistantLabel = "lulu"
)

// Render writes chat transcripts.
type Render interface {
	Writeln(args ...interface{})
	Writef(format string, args ...interface{})
}

// StdRenderer writes to an io.Writer, stdout by default.
type StdRenderer struct {
	w io.Writer
}

func NewStdRenderer() *StdRenderer {
	return &StdRenderer{w: os.Stdout}
}

func NewWriterRenderer(w io.Writer) *StdRenderer {
	return &StdRenderer{w: w}
}

func (r *StdRenderer) Writef(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *StdRenderer) Writeln(args ...interface{}) {
	fmt.Fprintln(r.w, args...)
}

// FormatChatLine renders one message: a coloured speaker label, then the
// text wrapped at width and indented under the label.
func FormatChatLine(fromUser bool, stamp string, text string, width int) string {
	label, color := AssistantLabel, data.RoleAssistantColor
	if fromUser {
		label, color = UserLabel, data.RoleUserColor
	}
	header := fmt.Sprintf("%s%s%s%s", data.BoldSeq, color, label, data.ResetSeq)
	if stamp != "" {
		header += fmt.Sprintf(" %s%s%s", data.DetailColor, stamp, data.ResetSeq)
	}
	if width < 20 {
		width = 20
	}
	body := indent.String(wordwrap.String(strings.TrimSpace(text), width-2), 2)
	return header + "\n" + body
}
