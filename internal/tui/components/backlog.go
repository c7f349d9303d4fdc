package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/survivalburger/storyteller/internal/tui/styles"
)

// DefaultBacklogMaxLines bounds how many past lines a Backlog keeps.
const DefaultBacklogMaxLines = 200

// Backlog is a scrollable list of lines already shown in a run. Long lines
// wrap, so ScrollOffset counts rendered rows rather than lines.
type Backlog struct {
	Lines        []string
	ScrollOffset int
	Height       int
	Width        int
	MaxLines     int

	// follow keeps the view on the newest row until the user scrolls up.
	follow bool
}

// NewBacklog creates an empty backlog.
func NewBacklog() *Backlog {
	return &Backlog{
		Height:   12,
		Width:    60,
		MaxLines: DefaultBacklogMaxLines,
		follow:   true,
	}
}

// Append adds a line and keeps the view pinned to the newest entry.
func (b *Backlog) Append(line string) {
	b.Lines = append(b.Lines, line)
	if b.MaxLines > 0 && len(b.Lines) > b.MaxLines {
		b.Lines = b.Lines[len(b.Lines)-b.MaxLines:]
	}
	b.ScrollToBottom()
}

// Reset empties the backlog.
func (b *Backlog) Reset() {
	b.Lines = nil
	b.ScrollOffset = 0
	b.follow = true
}

// ScrollUp scrolls the view up by n rows.
func (b *Backlog) ScrollUp(n int) {
	b.ScrollOffset -= n
	b.clampScroll(len(b.rows()))
}

// ScrollDown scrolls the view down by n rows.
func (b *Backlog) ScrollDown(n int) {
	b.ScrollOffset += n
	b.clampScroll(len(b.rows()))
}

// ScrollToBottom shows the newest rows.
func (b *Backlog) ScrollToBottom() {
	b.ScrollOffset = b.maxOffset(len(b.rows()))
	b.follow = true
}

func (b *Backlog) visibleRows() int {
	if b.Height <= 2 {
		return 1
	}
	return b.Height - 2 // header and footer
}

func (b *Backlog) maxOffset(total int) int {
	if offset := total - b.visibleRows(); offset > 0 {
		return offset
	}
	return 0
}

func (b *Backlog) clampScroll(total int) {
	bottom := b.maxOffset(total)
	if b.ScrollOffset > bottom {
		b.ScrollOffset = bottom
	}
	if b.ScrollOffset < 0 {
		b.ScrollOffset = 0
	}
	b.follow = b.ScrollOffset == bottom
}

// backlogRow is one rendered row. number is set on the first row of a line.
type backlogRow struct {
	number int
	text   string
}

// rows wraps every line to the text column. Wrapping counts terminal cells,
// so wide CJK characters take two columns.
func (b *Backlog) rows() []backlogRow {
	textWidth := b.textWidth()
	rows := make([]backlogRow, 0, len(b.Lines))
	for i, line := range b.Lines {
		wrapped := line
		if textWidth > 0 {
			wrapped = lipgloss.NewStyle().Width(textWidth).Render(line)
		}
		for n, part := range strings.Split(wrapped, "\n") {
			row := backlogRow{text: strings.TrimRight(part, " ")}
			if n == 0 {
				row.number = i + 1
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (b *Backlog) numberWidth() int {
	return len(fmt.Sprintf("%d", len(b.Lines)))
}

// textWidth is the room left after the "NN │ " gutter.
func (b *Backlog) textWidth() int {
	if b.Width <= 0 {
		return 0
	}
	if w := b.Width - b.numberWidth() - 3; w > 0 {
		return w
	}
	return 1
}

// Render renders the visible window of the backlog.
func (b *Backlog) Render(styleSet styles.Styles) string {
	if len(b.Lines) == 0 {
		return styleSet.Muted.Render("Nothing shown yet.")
	}

	rows := b.rows()
	if b.follow {
		b.ScrollOffset = b.maxOffset(len(rows))
	} else {
		b.clampScroll(len(rows))
	}

	end := b.ScrollOffset + b.visibleRows()
	if end > len(rows) {
		end = len(rows)
	}

	numWidth := b.numberWidth()
	rendered := make([]string, 0, end-b.ScrollOffset+1)
	for _, row := range rows[b.ScrollOffset:end] {
		gutter := strings.Repeat(" ", numWidth)
		if row.number > 0 {
			gutter = fmt.Sprintf("%*d", numWidth, row.number)
		}
		rendered = append(rendered, styleSet.Muted.Render(gutter)+" │ "+styleSet.Text.Render(row.text))
	}

	rendered = append(rendered, b.scrollIndicator(styleSet, len(rows)))
	return strings.Join(rendered, "\n")
}

func (b *Backlog) scrollIndicator(styleSet styles.Styles, totalRows int) string {
	visible := b.visibleRows()
	if totalRows <= visible {
		return styleSet.Muted.Render(fmt.Sprintf("─── %d lines ───", len(b.Lines)))
	}

	end := b.ScrollOffset + visible
	if end > totalRows {
		end = totalRows
	}
	return styleSet.Muted.Render(fmt.Sprintf("─── %d lines, rows %d-%d of %d ───",
		len(b.Lines), b.ScrollOffset+1, end, totalRows))
}

// RenderBacklogPanel renders a titled backlog panel.
func RenderBacklogPanel(styleSet styles.Styles, backlog *Backlog, title string, width int) string {
	if backlog == nil {
		return styleSet.Muted.Render("No backlog.")
	}

	box := styleSet.Box.Copy().Padding(0, 1)
	if width > 0 {
		// lipgloss widths include padding but not the border.
		backlog.Width = width - box.GetHorizontalFrameSize()
		box = box.Width(width - box.GetHorizontalBorderSize())
	}

	return box.Render(styleSet.Accent.Render(title) + "\n" + backlog.Render(styleSet))
}
