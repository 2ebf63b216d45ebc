package dom

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Field is a single name/value pair of a form data set.
type Field struct {
	Name  string
	Value string
}

// FormFields returns the data set of a form in tree order.
// Disabled controls, unchecked checkboxes and radio buttons,
// and buttons are not part of the data set.
func FormFields(form *html.Node) []Field {
	if form == nil {
		return nil
	}

	controls := findAll(form, func(n *html.Node) bool {
		return isElement(n, atom.Input) || isElement(n, atom.Select) || isElement(n, atom.Textarea)
	})

	fields := make([]Field, 0, len(controls))

	for _, control := range controls {
		name, ok := Attr(control, "name")
		if !ok || name == "" {
			continue
		}

		if _, disabled := Attr(control, "disabled"); disabled {
			continue
		}

		if isElement(control, atom.Input) {
			switch inputType(control) {
			case "submit", "button", "reset", "image", "file":
				continue
			case "checkbox", "radio":
				if _, checked := Attr(control, "checked"); !checked {
					continue
				}
			}
		}

		fields = append(fields, Field{Name: name, Value: Value(control)})
	}

	return fields
}

// FormValues returns the data set of a form as URL values.
func FormValues(form *html.Node) url.Values {
	values := make(url.Values)

	for _, field := range FormFields(form) {
		values.Add(field.Name, field.Value)
	}

	return values
}

// FormMethod returns the upper-cased submission method of a form, GET by default.
func FormMethod(form *html.Node) string {
	method, _ := Attr(form, "method")

	if strings.EqualFold(strings.TrimSpace(method), http.MethodPost) {
		return http.MethodPost
	}

	return http.MethodGet
}

// FormAction resolves the action of a form against the page location.
// A missing or empty action submits to the page itself.
func FormAction(form *html.Node, location string) (string, error) {
	base, err := url.Parse(location)
	if err != nil {
		return "", err
	}

	action, _ := Attr(form, "action")

	ref, err := url.Parse(strings.TrimSpace(action))
	if err != nil {
		return "", err
	}

	return base.ResolveReference(ref).String(), nil
}
