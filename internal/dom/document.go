package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoBody indicates that the document has no <body> element.
var ErrNoBody = errors.New("document has no body")

// Document is a parsed HTML document with the focus and selection state of a browser tab.
type Document struct {
	root      *html.Node
	focused   *html.Node
	selection string
}

// Page is a document together with the URL it was loaded from.
type Page struct {
	// Location is the absolute URL of the page, the equivalent of window.location.href.
	Location string
	// Document is the parsed page content.
	Document *Document
}

// Parse reads an HTML document.
// The parser always produces the <html>, <head> and <body> elements.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Document{root: root}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument returns an empty document with <html>, <head> and <body>.
func NewDocument() *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlNode := newElement(atom.Html)
	root.AppendChild(htmlNode)
	htmlNode.AppendChild(newElement(atom.Head))
	htmlNode.AppendChild(newElement(atom.Body))

	return &Document{root: root}
}

// Body returns the <body> element, or nil if there is none.
func (d *Document) Body() *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		return isElement(n, atom.Body)
	})
}

// GetElementByID returns the first element in tree order with the given id, or nil.
func (d *Document) GetElementByID(id string) *html.Node {
	return findFirst(d.root, func(n *html.Node) bool {
		value, ok := Attr(n, "id")

		return ok && value == id
	})
}

// CreateElement creates a detached element with the given tag name.
func (d *Document) CreateElement(tag string) *html.Node {
	tag = strings.ToLower(tag)

	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}
}

// AppendToBody appends n as the last child of <body>.
func (d *Document) AppendToBody(n *html.Node) error {
	body := d.Body()
	if body == nil {
		return ErrNoBody
	}

	AppendChild(body, n)

	return nil
}

// Forms returns all <form> elements in tree order.
func (d *Document) Forms() []*html.Node {
	return findAll(d.root, func(n *html.Node) bool {
		return isElement(n, atom.Form)
	})
}

// Focus makes n the active element.
func (d *Document) Focus(n *html.Node) {
	d.focused = n
}

// ActiveElement returns the focused element, or nil.
func (d *Document) ActiveElement() *html.Node {
	return d.focused
}

// SelectAll selects the whole text of a text control and returns it.
// Elements that are not text controls leave the selection empty.
func (d *Document) SelectAll(n *html.Node) string {
	d.selection = ""

	if isElement(n, atom.Textarea) || (isElement(n, atom.Input) && isTextInput(n)) {
		d.selection = Value(n)
	}

	return d.selection
}

// Selection returns the currently selected text.
func (d *Document) Selection() string {
	return d.selection
}

// Render serializes the document back to HTML.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	return buf.String(), nil
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}

	var sb strings.Builder

	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}

		return true
	})

	return sb.String()
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}

// walk visits n and its descendants in tree order until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}

	return true
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node

	walk(n, func(c *html.Node) bool {
		if match(c) {
			found = c

			return false
		}

		return true
	})

	return found
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node

	walk(n, func(c *html.Node) bool {
		if match(c) {
			found = append(found, c)
		}

		return true
	})

	return found
}
