package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"vesper/internal/diag"
	"vesper/internal/source"
)

type palette struct {
	err  *color.Color
	warn *color.Color
	info *color.Color
	code *color.Color
	loc  *color.Color
	mark *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.Bold),
		loc:  color.New(color.FgWhite),
		mark: color.New(color.FgGreen, color.Bold),
	}
	if !enabled {
		for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.mark} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders every diagnostic in the bag as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a caret underline covering the span, and
// optionally the notes and fixes in the same shape. Callers are expected to
// Sort the bag first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		writeHeader(w, fs, pal, d.Primary, d.Severity, d.Code.String(), d.Message, opts)
		writeSnippet(w, fs, pal, d.Primary, opts)
		if opts.ShowNotes {
			for _, note := range d.Notes {
				writeHeader(w, fs, pal, note.Span, diag.SevInfo, "note", note.Msg, opts)
				writeSnippet(w, fs, pal, note.Span, opts)
			}
		}
		if opts.ShowFixes {
			for _, fix := range d.Fixes {
				fmt.Fprintf(w, "  fix: %s\n", fix.Title)
				for _, edit := range fix.Edits {
					fmt.Fprintf(w, "    %s -> %q\n", formatLoc(fs, edit.Span, opts.PathMode), edit.NewText)
				}
			}
		}
	}
}

func formatLoc(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	path := f.Path
	if mode == PathModeBasename {
		path = filepath.Base(path)
	}
	if pos, ok := fs.Position(span); ok {
		return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col)
	}
	return path
}

func writeHeader(w io.Writer, fs *source.FileSet, pal palette, span source.Span, sev diag.Severity, code, msg string, opts PrettyOpts) {
	pal.loc.Fprint(w, formatLoc(fs, span, opts.PathMode))
	fmt.Fprint(w, ": ")
	pal.severity(sev).Fprint(w, sev.String())
	fmt.Fprint(w, " ")
	pal.code.Fprint(w, code)
	fmt.Fprintf(w, ": %s\n", msg)
}

// writeSnippet prints the primary line (with up to opts.Context lines above
// it) and the caret underline. Widths are measured in display cells so the
// underline stays aligned past wide runes.
func writeSnippet(w io.Writer, fs *source.FileSet, pal palette, span source.Span, opts PrettyOpts) {
	pos, ok := fs.Position(span)
	if !ok {
		return
	}
	first := pos.Line
	if opts.Context > 0 {
		if over := uint32(opts.Context); first > over {
			first -= over
		} else {
			first = 1
		}
	}
	for line := first; line < pos.Line; line++ {
		if text, ok := fs.Line(span.File, line); ok {
			fmt.Fprintf(w, "  %4d | %s\n", line, text)
		}
	}
	text, ok := fs.Line(span.File, pos.Line)
	if !ok {
		return
	}
	fmt.Fprintf(w, "  %4d | %s\n", pos.Line, text)

	col := int(pos.Col) - 1
	if col > len(text) {
		col = len(text)
	}
	pad := runewidth.StringWidth(string(text[:col]))
	width := int(span.End - span.Start)
	if rest := len(text) - col; width > rest {
		width = rest
	}
	marked := 1
	if width > 1 {
		marked = runewidth.StringWidth(string(text[col : col+width]))
	}
	fmt.Fprint(w, "       | ", strings.Repeat(" ", pad))
	pal.mark.Fprint(w, "^"+strings.Repeat("~", marked-1))
	fmt.Fprintln(w)
}
