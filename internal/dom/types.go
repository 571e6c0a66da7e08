package dom

// Node represents an element in the parsed document tree
// This interface can be implemented by any HTML parsing library
type Node interface {
	// Core node information
	TagName() string
	Attr(name string) (string, bool)
	Classes() []string
	HasClass(name string) bool

	// Content access
	Text() string
	OuterHTML() (string, error)

	// Tree navigation
	Parent() Node
	Children() []Node
	Find(selector string) []Node
	ElementsByClass(name string) []Node

	// Identity check across wrapper instances
	Same(other Node) bool

	// Modification
	SetAttr(name, value string) error
	RemoveAttr(name string) error
	AddClass(name string) error
	RemoveClass(name string) error
	SetInlineStyle(property, value string) error
	SetText(content string) error
	ReplaceWith(replacement Node) error
}

// Document represents the complete parsed document
type Document interface {
	// Element selection
	Find(selector string) []Node
	First(selector string) (Node, bool)

	// StyleNodes returns every <style> element in the document, in
	// document order. Callers decide ownership by inspecting parents.
	StyleNodes() []Node

	// Serialization
	HTML() (string, error)
}

// Parser handles parsing markup into documents
type Parser interface {
	Parse(markup string) (Document, error)
}
