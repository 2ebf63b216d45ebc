// Package dom provides a small in-memory HTML document model on top of golang.org/x/net/html.
//
// It covers the subset of the browser document API the login helpers need:
// element lookup by id, element creation, form controls and their values,
// focus and text selection.
package dom
