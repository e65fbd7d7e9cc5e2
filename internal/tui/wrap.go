package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const tileGap = 2

// tile is one rendered chip: a word, option or pair item. width is the
// terminal cell width of the unstyled label, so wide kana line up.
type tile struct {
	s     string
	width int
}

func newTile(label string, style lipgloss.Style) tile {
	return tile{s: style.Render(label), width: runewidth.StringWidth(label)}
}

func renderTiles(tiles []tile) string {
	var b strings.Builder
	for i, item := range tiles {
		if i > 0 {
			b.WriteString(strings.Repeat(" ", tileGap))
		}
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapTiles lays tiles out left to right and breaks lines before a tile
// that would exceed width. A tile wider than width gets a line of its own.
func wrapTiles(tiles []tile, width int) string {
	if width <= 0 {
		return renderTiles(tiles)
	}
	var out strings.Builder
	line := make([]tile, 0, len(tiles))
	lineWidth := 0
	for _, item := range tiles {
		extra := item.width
		if len(line) > 0 {
			extra += tileGap
		}
		if lineWidth+extra > width && len(line) > 0 {
			out.WriteString(renderTiles(line))
			out.WriteRune('\n')
			line = line[:0]
			lineWidth = 0
			extra = item.width
		}
		line = append(line, item)
		lineWidth += extra
	}
	out.WriteString(renderTiles(line))
	return out.String()
}

// padRight pads s with spaces to width terminal cells.
func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
