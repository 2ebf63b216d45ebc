package form

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/oshokin/vault-webflow/internal/client/webflow"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/dom"
	"github.com/oshokin/vault-webflow/internal/logger"
	"github.com/oshokin/vault-webflow/internal/utils"
)

// ErrRoleControlNotFound indicates that the page has no role selection control.
var ErrRoleControlNotFound = errors.New("role control not found")

// Service submits the login form of a roles page.
type Service interface {
	// Submit builds the hidden login form on page, submits it and returns the page navigated to.
	Submit(ctx context.Context, page *dom.Page) (*dom.Page, error)
}

// ServiceImpl implements Service.
type ServiceImpl struct {
	// client performs the form submission.
	client webflow.Client
	// target is the endpoint the form is posted to.
	target Target
	// roleElementID is the id of the role selection control.
	roleElementID string
	// decode indicates whether the code is URL-decoded before submission.
	decode bool
}

// NewService creates a form submitter from the validated configuration.
func NewService(cfg *config.Config, client webflow.Client) (*ServiceImpl, error) {
	target, err := ParseTarget(cfg.SubmitTarget)
	if err != nil {
		return nil, err
	}

	return &ServiceImpl{
		client:        client,
		target:        target,
		roleElementID: cfg.RoleElementID,
		decode:        cfg.DecodeCode,
	}, nil
}

// Submit reads the code from the page URL and the role from the role control,
// appends a POST form with both as hidden inputs to the body and submits it.
// Submission failures are returned as they are, nothing is retried.
func (s *ServiceImpl) Submit(ctx context.Context, page *dom.Page) (*dom.Page, error) {
	search, err := utils.SearchFromLocation(page.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page location: %w", err)
	}

	control := page.Document.GetElementByID(s.roleElementID)
	if control == nil {
		return nil, fmt.Errorf("%w: #%s", ErrRoleControlNotFound, s.roleElementID)
	}

	payload, err := BuildPayload(search, dom.Value(control), s.decode)
	if err != nil {
		return nil, err
	}

	action := ResolveTarget(page.Location, s.target)

	form, err := RenderForm(page.Document, action, payload)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Submitting login form", "action", action, "role", payload.Role)

	return s.client.Submit(ctx, page, form)
}

// RenderForm creates a POST form with one hidden input per payload field and appends it to the body.
func RenderForm(document *dom.Document, action string, payload Payload) (*html.Node, error) {
	form := document.CreateElement("form")
	dom.SetAttr(form, "method", "POST")
	dom.SetAttr(form, "action", action)

	for _, field := range payload.Fields() {
		input := document.CreateElement("input")
		dom.SetAttr(input, "type", "hidden")
		dom.SetAttr(input, "name", field.Name)
		dom.SetAttr(input, "value", field.Value)
		dom.AppendChild(form, input)
	}

	if err := document.AppendToBody(form); err != nil {
		return nil, fmt.Errorf("failed to attach login form: %w", err)
	}

	return form, nil
}
