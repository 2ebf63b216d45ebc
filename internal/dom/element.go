package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AppendChild appends child to parent, detaching it from its previous parent first.
func AppendChild(parent, child *html.Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}

	parent.AppendChild(child)
}

// Attr returns the value of the attribute key of n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}

	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}

	return "", false
}

// SetAttr sets the attribute key of n, replacing an existing value.
func SetAttr(n *html.Node, key, value string) {
	key = strings.ToLower(key)

	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value

			return
		}
	}

	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr removes the attribute key of n.
func RemoveAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]

	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}

		attrs = append(attrs, a)
	}

	n.Attr = attrs
}

// Value returns the current value of a form control:
// the value attribute of <input>, the text of <textarea>
// and the value of the selected option of <select>.
func Value(n *html.Node) string {
	switch {
	case isElement(n, atom.Input):
		value, ok := Attr(n, "value")
		if !ok && isCheckable(n) {
			return "on"
		}

		return value
	case isElement(n, atom.Textarea):
		return TextContent(n)
	case isElement(n, atom.Select):
		option := selectedOption(n)
		if option == nil {
			return ""
		}

		return optionValue(option)
	case isElement(n, atom.Option):
		return optionValue(n)
	}

	return ""
}

// SelectOption marks the option of a <select> whose value equals value as the only selected one.
// It reports whether such an option exists.
func SelectOption(n *html.Node, value string) bool {
	if !isElement(n, atom.Select) {
		return false
	}

	var target *html.Node

	opts := options(n)
	for _, option := range opts {
		if optionValue(option) == value {
			target = option

			break
		}
	}

	if target == nil {
		return false
	}

	for _, option := range opts {
		RemoveAttr(option, "selected")
	}

	SetAttr(target, "selected", "")

	return true
}

// Options returns the values of all options of a <select>.
func Options(n *html.Node) []string {
	if !isElement(n, atom.Select) {
		return nil
	}

	opts := options(n)
	values := make([]string, 0, len(opts))

	for _, option := range opts {
		values = append(values, optionValue(option))
	}

	return values
}

func options(n *html.Node) []*html.Node {
	return findAll(n, func(c *html.Node) bool {
		return isElement(c, atom.Option)
	})
}

// selectedOption returns the last option carrying the selected attribute,
// or the first enabled option of a single-choice select.
func selectedOption(n *html.Node) *html.Node {
	var (
		selected *html.Node
		first    *html.Node
	)

	for _, option := range options(n) {
		if _, ok := Attr(option, "selected"); ok {
			selected = option
		}

		if _, disabled := Attr(option, "disabled"); first == nil && !disabled {
			first = option
		}
	}

	if selected != nil {
		return selected
	}

	if _, multiple := Attr(n, "multiple"); multiple {
		return nil
	}

	return first
}

func optionValue(n *html.Node) string {
	if value, ok := Attr(n, "value"); ok {
		return value
	}

	return strings.Join(strings.Fields(TextContent(n)), " ")
}

func inputType(n *html.Node) string {
	t, _ := Attr(n, "type")

	return strings.ToLower(strings.TrimSpace(t))
}

func isCheckable(n *html.Node) bool {
	t := inputType(n)

	return t == "checkbox" || t == "radio"
}

func isTextInput(n *html.Node) bool {
	switch inputType(n) {
	case "", "text", "search", "url", "tel", "email", "password":
		return true
	}

	return false
}
