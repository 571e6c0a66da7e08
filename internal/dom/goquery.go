package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GoQueryDocument wraps goquery.Document to implement our Document interface
type GoQueryDocument struct {
	doc *goquery.Document
}

// GoQueryNode wraps goquery.Selection to implement our Node interface
type GoQueryNode struct {
	selection *goquery.Selection
}

// GoQueryParser implements our Parser interface using goquery
type GoQueryParser struct{}

// NewParser creates a new GoQuery-based markup parser
func NewParser() *GoQueryParser {
	return &GoQueryParser{}
}

// Parse parses a markup string into a Document. Fetched SVG payloads go
// through the same path as host pages: the html parser hoists the <svg>
// element into the synthetic body, where Find("svg") locates it.
func (p *GoQueryParser) Parse(markup string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	return &GoQueryDocument{doc: doc}, nil
}

// Document implementation

// Find returns all elements matching the selector
func (d *GoQueryDocument) Find(selector string) []Node {
	return wrapSelection(d.doc.Find(selector))
}

// First returns the first element matching the selector
func (d *GoQueryDocument) First(selector string) (Node, bool) {
	selection := d.doc.Find(selector).First()
	if selection.Length() == 0 {
		return nil, false
	}
	return &GoQueryNode{selection: selection}, true
}

// StyleNodes returns all <style> elements in document order
func (d *GoQueryDocument) StyleNodes() []Node {
	return d.Find("style")
}

// HTML returns the complete document as a string
func (d *GoQueryDocument) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize document: %w", err)
	}
	return out, nil
}

// Node implementation

// TagName returns the element's tag name
func (n *GoQueryNode) TagName() string {
	if n.selection.Length() == 0 {
		return ""
	}
	return goquery.NodeName(n.selection)
}

// Attr returns the attribute value and whether it is defined on the element
func (n *GoQueryNode) Attr(name string) (string, bool) {
	return n.selection.Attr(name)
}

// Classes returns the element's class list
func (n *GoQueryNode) Classes() []string {
	class, exists := n.selection.Attr("class")
	if !exists || class == "" {
		return []string{}
	}
	return strings.Fields(class)
}

// HasClass reports whether the element carries the given class
func (n *GoQueryNode) HasClass(name string) bool {
	return n.selection.HasClass(name)
}

// Text returns the text content
func (n *GoQueryNode) Text() string {
	return n.selection.Text()
}

// OuterHTML returns the element rendered as markup
func (n *GoQueryNode) OuterHTML() (string, error) {
	if n.selection.Length() == 0 {
		return "", fmt.Errorf("no element to render")
	}

	var buf strings.Builder
	if err := html.Render(&buf, n.selection.Get(0)); err != nil {
		return "", fmt.Errorf("failed to render element: %w", err)
	}
	return buf.String(), nil
}

// Parent returns the parent element
func (n *GoQueryNode) Parent() Node {
	parent := n.selection.Parent()
	if parent.Length() == 0 {
		return nil
	}
	return &GoQueryNode{selection: parent}
}

// Children returns all child elements
func (n *GoQueryNode) Children() []Node {
	return wrapSelection(n.selection.Children())
}

// Find returns all descendant elements matching the selector
func (n *GoQueryNode) Find(selector string) []Node {
	return wrapSelection(n.selection.Find(selector))
}

// ElementsByClass returns every descendant element carrying the given
// class, including the element itself. The tree is walked directly rather
// than going through a compiled selector, so class names that are not
// valid CSS identifiers still match.
func (n *GoQueryNode) ElementsByClass(name string) []Node {
	if n.selection.Length() == 0 || name == "" {
		return nil
	}

	var nodes []Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && nodeHasClass(node, name) {
			nodes = append(nodes, wrapNode(node))
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.selection.Get(0))

	return nodes
}

// Same reports whether both wrappers refer to the same underlying element
func (n *GoQueryNode) Same(other Node) bool {
	o, ok := other.(*GoQueryNode)
	if !ok || n.selection.Length() == 0 || o.selection.Length() == 0 {
		return false
	}
	return n.selection.Get(0) == o.selection.Get(0)
}

// SetAttr sets an attribute on the element
func (n *GoQueryNode) SetAttr(name, value string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to set attribute on")
	}

	n.selection.SetAttr(name, value)
	return nil
}

// RemoveAttr removes an attribute from the element
func (n *GoQueryNode) RemoveAttr(name string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to remove attribute from")
	}

	n.selection.RemoveAttr(name)
	return nil
}

// AddClass adds a class to the element; adding an existing class is a no-op
func (n *GoQueryNode) AddClass(name string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to add class to")
	}

	if !n.selection.HasClass(name) {
		n.selection.AddClass(name)
	}
	return nil
}

// RemoveClass removes a class from the element
func (n *GoQueryNode) RemoveClass(name string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to remove class from")
	}

	n.selection.RemoveClass(name)
	return nil
}

// SetInlineStyle sets a single property in the element's style attribute,
// replacing any previous declaration of the same property
func (n *GoQueryNode) SetInlineStyle(property, value string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to style")
	}

	existing, _ := n.selection.Attr("style")

	var parts []string
	for _, decl := range strings.Split(existing, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, found := strings.Cut(decl, ":")
		if found && strings.EqualFold(strings.TrimSpace(name), property) {
			continue
		}
		parts = append(parts, decl)
	}
	parts = append(parts, fmt.Sprintf("%s: %s", property, value))

	n.selection.SetAttr("style", strings.Join(parts, "; "))
	return nil
}

// SetText replaces the element's content with a text node
func (n *GoQueryNode) SetText(content string) error {
	if n.selection.Length() == 0 {
		return fmt.Errorf("no element to set text on")
	}

	n.selection.SetText(content)
	return nil
}

// ReplaceWith swaps this element for the replacement at the same tree
// position. The replacement is detached from wherever it currently lives,
// so nodes can move between documents.
func (n *GoQueryNode) ReplaceWith(replacement Node) error {
	r, ok := replacement.(*GoQueryNode)
	if !ok {
		return fmt.Errorf("replacement is not a goquery-backed node")
	}
	if n.selection.Length() == 0 || r.selection.Length() == 0 {
		return fmt.Errorf("no element to replace")
	}

	self := n.selection.Get(0)
	repl := r.selection.Get(0)
	parent := self.Parent
	if parent == nil {
		return fmt.Errorf("element has no parent")
	}

	if repl.Parent != nil {
		repl.Parent.RemoveChild(repl)
	}
	parent.InsertBefore(repl, self)
	parent.RemoveChild(self)

	return nil
}

// helpers

func wrapSelection(selection *goquery.Selection) []Node {
	nodes := make([]Node, selection.Length())
	selection.Each(func(i int, s *goquery.Selection) {
		nodes[i] = &GoQueryNode{selection: s}
	})
	return nodes
}

// wrapNode builds a single-element wrapper around a raw html node
func wrapNode(node *html.Node) *GoQueryNode {
	return &GoQueryNode{selection: goquery.NewDocumentFromNode(node).Selection}
}

func nodeHasClass(node *html.Node, name string) bool {
	for _, attr := range node.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == name {
				return true
			}
		}
	}
	return false
}
