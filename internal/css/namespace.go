package css

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	douceur "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ParseRules parses the content of an embedded <style> element into a flat
// list of rules. At-rules are dropped: the stylesheets emitted by vector
// export tools hold plain class rules only, and the namespacing rewrite has
// nothing meaningful to do with a media query or keyframe block.
func ParseRules(sheet string) ([]Rule, error) {
	parsed, err := parser.Parse(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stylesheet: %w", err)
	}

	var rules []Rule
	for _, raw := range parsed.Rules {
		if raw.Kind != douceur.QualifiedRule {
			continue
		}

		selector := strings.TrimSpace(strings.Join(raw.Selectors, ", "))
		rule := Rule{
			Selector:     selector,
			Class:        classFromSelector(selector),
			Declarations: make([]Declaration, 0, len(raw.Declarations)),
		}
		for _, d := range raw.Declarations {
			rule.Declarations = append(rule.Declarations, Declaration{
				Property:  d.Property,
				Value:     d.Value,
				Important: d.Important,
			})
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// classFromSelector returns the class name when the selector is a single
// bare class selector (".st0" style), or "" for anything more elaborate.
func classFromSelector(selector string) string {
	if !strings.HasPrefix(selector, ".") {
		return ""
	}
	name := selector[1:]
	if name == "" || strings.ContainsAny(name, " .#:>[~+,") {
		return ""
	}
	return name
}

// UniquePrefix derives a class-name prefix from the given instant. The
// timestamp is rendered in base 36 and leading digits are stripped, since a
// CSS class name may not begin with a digit.
func UniquePrefix(t time.Time) string {
	s := strconv.FormatInt(t.UnixNano(), 36)
	s = strings.TrimLeft(s, "0123456789")
	if s == "" {
		s = "svg"
	}
	return s
}

// PrefixClass builds the namespaced class name for an original class
func PrefixClass(prefix, class string) string {
	return prefix + "-" + class
}
