package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pick    key.Binding
	Right   key.Binding
	Unpick  key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Pick: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
		key.WithHelp("1-9", "pick"),
	),
	Right: key.NewBinding(
		key.WithKeys("a", "b", "c", "d", "e", "f", "g", "h", "i", "j"),
		key.WithHelp("a-j", "match"),
	),
	Unpick: key.NewBinding(
		key.WithKeys("backspace", "delete"),
		key.WithHelp("⌫", "undo"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "check"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

// digitIndex maps "1".."9","0" to 0..9.
func digitIndex(s string) (int, bool) {
	if len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	if s[0] == '0' {
		return 9, true
	}
	return int(s[0] - '1'), true
}

// letterIndex maps "a".."j" to 0..9.
func letterIndex(s string) (int, bool) {
	if len(s) != 1 || s[0] < 'a' || s[0] > 'j' {
		return 0, false
	}
	return int(s[0] - 'a'), true
}

func digitLabel(i int) string {
	if i == 9 {
		return "0"
	}
	return string(rune('1' + i))
}

func letterLabel(i int) string {
	return string(rune('a' + i))
}
