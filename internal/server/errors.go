package server

import (
	"errors"
	"net/http"

	"github.com/oshokin/vault-webflow/internal/client/vault"
)

// Error codes shown on the error page.
const (
	codeIndexUnreachable      = "A001"
	codeIndexNotConfigured    = "A002"
	codeIndexNotMounted       = "A003"
	codeUnreachable           = "A004"
	codeIncorrectlyConfigured = "A005"
	codeRoleNotAuthorized     = "A006"
	codeMalformedCode         = "A007"
)

const (
	messageUnreachable           = "Unreachable server"
	messageIncorrectlyConfigured = "Incorrectly configured server"
	messageRoleNotAuthorized     = "Authenticated Google account is not authorized to use the selected role"
	messageMalformedCode         = "Malformed authorization code"
)

// errorPage is the data of the error template.
type errorPage struct {
	Status  int
	Code    string
	Message string
}

func unreachable(code string) errorPage {
	return errorPage{Status: http.StatusBadGateway, Code: code, Message: messageUnreachable}
}

func incorrectlyConfigured(code string) errorPage {
	return errorPage{Status: http.StatusInternalServerError, Code: code, Message: messageIncorrectlyConfigured}
}

// indexError maps a failure to obtain the OAuth URL.
func indexError(err error) errorPage {
	switch {
	case errors.Is(err, vault.ErrConnection):
		return unreachable(codeIndexUnreachable)
	case errors.Is(err, vault.ErrMissingData):
		// The plugin is not mounted at the configured path.
		return incorrectlyConfigured(codeIndexNotMounted)
	default:
		// The plugin is mounted but its configuration has not been written.
		return incorrectlyConfigured(codeIndexNotConfigured)
	}
}

// rolesError maps a failure to list the roles.
func rolesError(err error) errorPage {
	if errors.Is(err, vault.ErrConnection) {
		return unreachable(codeUnreachable)
	}

	return incorrectlyConfigured(codeIncorrectlyConfigured)
}

// loginError maps a failure to exchange the code for a token.
func loginError(err error) errorPage {
	switch {
	case errors.Is(err, vault.ErrConnection):
		return unreachable(codeUnreachable)
	case errors.Is(err, vault.ErrInvalidRequest):
		return errorPage{Status: http.StatusForbidden, Code: codeRoleNotAuthorized, Message: messageRoleNotAuthorized}
	default:
		return incorrectlyConfigured(codeIncorrectlyConfigured)
	}
}

// malformedCode is returned when the OAuth code in the redirect cannot be decoded.
func malformedCode() errorPage {
	return errorPage{Status: http.StatusBadRequest, Code: codeMalformedCode, Message: messageMalformedCode}
}
