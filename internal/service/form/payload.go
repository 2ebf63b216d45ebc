package form

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/utils"
)

// Target selects the endpoint the login form is posted to.
type Target string

const (
	// TargetLogin posts to "/login" on the current origin.
	TargetLogin Target = config.SubmitTargetLogin
	// TargetWrite posts to "<origin>/write".
	TargetWrite Target = config.SubmitTargetWrite

	// FieldCode is the name of the hidden input carrying the OAuth code.
	FieldCode = "code"
	// FieldRole is the name of the hidden input carrying the selected role.
	FieldRole = "role"

	// missingCode is submitted when the page URL has no code parameter.
	missingCode = "undefined"

	loginPath = "/login"
	writePath = "/write"
)

var (
	// ErrMalformedCode indicates that the code cannot be URL-decoded.
	ErrMalformedCode = errors.New("malformed code")
	// ErrInvalidTarget indicates an unknown submit target.
	ErrInvalidTarget = errors.New("invalid submit target")
)

// Payload is the data set of the login form.
type Payload struct {
	Code string
	Role string
}

// Field is a single hidden input of the login form.
type Field struct {
	Name  string
	Value string
}

// Fields returns the form fields in submission order.
func (p Payload) Fields() []Field {
	return []Field{
		{Name: FieldCode, Value: p.Code},
		{Name: FieldRole, Value: p.Role},
	}
}

// BuildPayload reads the code parameter from a query string such as "?code=abc" and pairs it with role.
// A missing code becomes the literal "undefined".
// When decode is set, percent escapes are decoded while '+' is kept as is.
func BuildPayload(search, role string, decode bool) (Payload, error) {
	code, ok := utils.QueryParameter(search, FieldCode)
	if !ok {
		return Payload{Code: missingCode, Role: role}, nil
	}

	if decode {
		decoded, err := decodeComponent(code)
		if err != nil {
			return Payload{}, err
		}

		code = decoded
	}

	return Payload{Code: code, Role: role}, nil
}

// decodeComponent decodes %XX escapes and rejects sequences that do not form valid UTF-8.
func decodeComponent(value string) (string, error) {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedCode, err)
	}

	if !utf8.ValidString(decoded) {
		return "", fmt.Errorf("%w: invalid UTF-8 sequence in %q", ErrMalformedCode, value)
	}

	return decoded, nil
}

// ParseTarget converts a configuration value into a Target.
func ParseTarget(value string) (Target, error) {
	switch target := Target(strings.ToLower(strings.TrimSpace(value))); target {
	case TargetLogin, TargetWrite:
		return target, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrInvalidTarget, value)
	}
}

// ResolveTarget returns the form action for the page at location.
func ResolveTarget(location string, target Target) string {
	if target == TargetWrite {
		return utils.ExtractOrigin(location) + writePath
	}

	return loginPath
}
