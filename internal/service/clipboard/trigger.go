package clipboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/oshokin/vault-webflow/internal/dom"
	"github.com/oshokin/vault-webflow/internal/logger"
)

// ErrElementNotFound indicates that the button or the input is missing when the trigger is bound.
var ErrElementNotFound = errors.New("element not found")

// Trigger copies the text of an input when its button is clicked.
type Trigger struct {
	document *dom.Document
	input    *html.Node
	writer   Writer
}

// Bind looks up the button and the input once and returns the bound trigger.
// Both elements must exist at binding time.
func Bind(document *dom.Document, buttonID, inputID string, writer Writer) (*Trigger, error) {
	if document.GetElementByID(buttonID) == nil {
		return nil, fmt.Errorf("%w: #%s", ErrElementNotFound, buttonID)
	}

	input := document.GetElementByID(inputID)
	if input == nil {
		return nil, fmt.Errorf("%w: #%s", ErrElementNotFound, inputID)
	}

	return &Trigger{
		document: document,
		input:    input,
		writer:   writer,
	}, nil
}

// Click focuses the input, selects all of its text and copies the selection.
// A clipboard failure is logged and otherwise ignored, the selection stays in place.
func (t *Trigger) Click(ctx context.Context) string {
	t.document.Focus(t.input)
	selection := t.document.SelectAll(t.input)

	if err := t.writer.WriteAll(selection); err != nil {
		logger.Debugf(ctx, "Failed to copy selection to clipboard: %v", err)
	}

	return selection
}
