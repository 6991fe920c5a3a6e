package lifecycle

import (
	"strings"
	"unicode"
)

type Action int

const (
	// ActionKeep leaves the displayed message as is.
	ActionKeep Action = iota
	// ActionEdit replaces the displayed message with fresh content.
	ActionEdit
)

func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// SameContent reports whether two texts are equal once every whitespace
// rune is removed.
func SameContent(displayed, fresh string) bool {
	return stripSpace(displayed) == stripSpace(fresh)
}

// Decide picks what a refresh should do with the displayed message.
func Decide(displayed, fresh string) Action {
	if SameContent(displayed, fresh) {
		return ActionKeep
	}
	return ActionEdit
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
