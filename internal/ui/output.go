package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Printer writes styled status lines and tables.
type Printer struct {
	w io.Writer

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	title   lipgloss.Style
}

// NewPrinter creates a Printer for w. Without color all styles render plain text.
func NewPrinter(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
	}
}

func (p *Printer) Done(format string, args ...any) {
	fmt.Fprintln(p.w, p.success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render("•")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, p.warning.Render("!")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, p.failure.Render("✗")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Skipped(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render("-")+" "+p.muted.Render(fmt.Sprintf(format, args...)))
}

// Title prints a bold heading.
func (p *Printer) Title(s string) {
	fmt.Fprintln(p.w, p.title.Render(s))
}

// Println prints plain text.
func (p *Printer) Println(s string) {
	fmt.Fprintln(p.w, s)
}

// Muted renders s dimmed.
func (p *Printer) Muted(s string) string {
	return p.muted.Render(s)
}

// Table renders rows as a borderless table.
func (p *Printer) Table(header []string, rows [][]string) error {
	table := tablewriter.NewTable(
		p.w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		})),
	)

	if len(header) > 0 {
		table.Header(header)
	}

	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("adding table rows: %w", err)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	return nil
}
