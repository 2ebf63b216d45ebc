package webflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/vault-webflow/internal/dom"
)

const (
	// ErrorCodeElementID is the id of the element holding the code on webflow error pages.
	ErrorCodeElementID = "error-code"
	// ErrorMessageElementID is the id of the element holding the message on webflow error pages.
	ErrorMessageElementID = "error-message"
)

// ErrErrorPage indicates that the webflow rendered one of its error pages.
var ErrErrorPage = errors.New("webflow returned an error")

// PageError returns an error wrapping ErrErrorPage with the message and code of a webflow error page,
// or nil when the document is not an error page.
func PageError(document *dom.Document) error {
	if document == nil {
		return nil
	}

	codeElement := document.GetElementByID(ErrorCodeElementID)
	if codeElement == nil {
		return nil
	}

	return fmt.Errorf("%w: %s (%s)", ErrErrorPage,
		strings.TrimSpace(dom.TextContent(document.GetElementByID(ErrorMessageElementID))),
		strings.TrimSpace(dom.TextContent(codeElement)))
}
