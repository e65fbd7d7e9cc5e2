package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func plainTiles(labels ...string) []tile {
	out := make([]tile, len(labels))
	for i, l := range labels {
		out[i] = newTile(l, lipgloss.NewStyle())
	}
	return out
}

func TestNewTileMeasuresWideRunes(t *testing.T) {
	if got := newTile("学生", lipgloss.NewStyle()).width; got != 4 {
		t.Fatalf("expected width 4, got %d", got)
	}
	if got := newTile("[1] は", lipgloss.NewStyle()).width; got != 6 {
		t.Fatalf("expected width 6, got %d", got)
	}
}

func TestWrapTilesBreaksBeforeOverflow(t *testing.T) {
	tiles := plainTiles("わたし", "は", "がくせい", "です")
	got := wrapTiles(tiles, 12)
	want := "わたし  は\nがくせい\nです"
	if got != want {
		t.Fatalf("unexpected wrap:\n%q\nwant\n%q", got, want)
	}
}

func TestWrapTilesWideTileOwnLine(t *testing.T) {
	tiles := plainTiles("a", "longerthanwidth", "b")
	got := wrapTiles(tiles, 5)
	want := "a\nlongerthanwidth\nb"
	if got != want {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTilesNoWidth(t *testing.T) {
	if got := wrapTiles(plainTiles("a", "b"), 0); got != "a  b" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("学", 4); got != "学  " {
		t.Fatalf("unexpected pad %q", got)
	}
}
