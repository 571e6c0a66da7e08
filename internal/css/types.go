package css

import "strings"

// Declaration represents a single CSS property declaration
type Declaration struct {
	Property  string // CSS property name
	Value     string // CSS property value
	Important bool   // !important flag
}

// Rule represents one rule lifted from an embedded stylesheet
type Rule struct {
	Selector     string        // Original selector text
	Class        string        // Class name when the selector is a bare class selector, "" otherwise
	Declarations []Declaration // Declarations in source order
}

// String renders the rule back to CSS text under its own selector
func (r Rule) String() string {
	return Render(r.Selector, r.Declarations)
}

// Render formats a declaration block under the given selector
func Render(selector string, declarations []Declaration) string {
	var b strings.Builder
	b.WriteString(selector)
	b.WriteString(" { ")
	for _, d := range declarations {
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		if d.Important {
			b.WriteString(" !important")
		}
		b.WriteString("; ")
	}
	b.WriteString("}")
	return b.String()
}
