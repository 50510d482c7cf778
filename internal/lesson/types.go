package lesson

import (
	"fmt"
	"strings"
)

// Type selects the kind of lesson page to generate.
type Type string

const (
	TypeImage    Type = "image"
	TypeHTML     Type = "html"
	TypeSVG      Type = "svg"
	TypeText     Type = "text"
	TypeDialogue Type = "dialogue"
)

// Types lists every lesson type in menu order.
func Types() []Type {
	return []Type{TypeSVG, TypeHTML, TypeText, TypeDialogue, TypeImage}
}

// Label is the human readable name of t.
func (t Type) Label() string {
	switch t {
	case TypeImage:
		return "Illustration"
	case TypeHTML:
		return "Illustrated scroll"
	case TypeSVG:
		return "SVG animation"
	case TypeText:
		return "Article"
	case TypeDialogue:
		return "Chat dialogue"
	}
	return string(t)
}

// ParseType accepts a lesson type name case-insensitively.
func ParseType(s string) (Type, error) {
	v := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Types() {
		if t == v {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown lesson type %q", s)
}
