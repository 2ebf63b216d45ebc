package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/vault-webflow/internal/logger"
	"github.com/oshokin/vault-webflow/internal/service/form"
)

// rolesPage is the data of the roles template.
type rolesPage struct {
	Action        string
	Code          string
	RoleElementID string
	Roles         []string
}

// tokenPage is the data of the token template.
type tokenPage struct {
	Token        string
	Role         string
	Username     string
	Policies     []string
	TTL          string
	TokenInputID string
	CopyButtonID string
}

// handleIndex redirects to the Google OAuth consent page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	codeURL, err := s.vault.GetCodeURL(ctx)
	if err != nil {
		page := indexError(err)
		logger.Warnf(ctx, "Failed to get OAuth URL (%s): %v", page.Code, err)
		s.renderError(w, r, page)

		return
	}

	http.Redirect(w, r, codeURL, http.StatusFound)
}

// handleRoles renders the role selection page Google redirects back to.
func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roles, err := s.listRoles(ctx)
	if err != nil {
		page := rolesError(err)
		logger.Warnf(ctx, "Failed to list roles (%s): %v", page.Code, err)
		s.renderError(w, r, page)

		return
	}

	search := ""
	if r.URL.RawQuery != "" {
		search = "?" + r.URL.RawQuery
	}

	// The role comes from the select control of the same form.
	payload, err := form.BuildPayload(search, "", s.cfg.DecodeCode)
	if err != nil {
		logger.Warnf(ctx, "Failed to decode OAuth code: %v", err)
		s.renderError(w, r, malformedCode())

		return
	}

	// The page carries the OAuth code.
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, http.StatusOK, templateRoles, rolesPage{
		Action:        form.ResolveTarget(s.location(r), s.target),
		Code:          payload.Code,
		RoleElementID: s.cfg.RoleElementID,
		Roles:         roles,
	})
}

// handleLogin exchanges the submitted code and role for a Vault token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		code = r.PostFormValue(form.FieldCode)
		role = r.PostFormValue(form.FieldRole)
	)

	result, err := s.vault.Login(ctx, code, role)
	if err != nil {
		page := loginError(err)
		logger.Warnf(ctx, "Failed to log in with role %q (%s): %v", role, page.Code, err)
		s.renderError(w, r, page)

		return
	}

	logger.InfoKV(ctx, "Vault token issued", "role", role, "policies", result.Policies)

	now := time.Now()

	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, http.StatusOK, templateToken, tokenPage{
		Token:        result.ClientToken,
		Role:         role,
		Username:     result.Metadata["username"],
		Policies:     result.Policies,
		TTL:          strings.TrimSpace(humanize.RelTime(now, now.Add(result.LeaseDuration), "", "")),
		TokenInputID: s.cfg.TokenInputID,
		CopyButtonID: s.cfg.CopyButtonID,
	})
}

// handleHealth reports that the server is up.
func (*Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := s.pages.render(w, status, name, data); err != nil {
		logger.Errorf(r.Context(), "Failed to render page: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, page errorPage) {
	s.render(w, r, page.Status, templateError, page)
}

// location returns the absolute URL of the request as the browser sees it.
// The configured webflow origin takes precedence over the Host header sent by the client.
func (s *Server) location(r *http.Request) string {
	if s.origin != "" {
		return s.origin + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host + r.URL.RequestURI()
}
