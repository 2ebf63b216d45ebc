// Package auth provides the browser-based login through the webflow.
//
// It opens the webflow in a real browser via go-rod, lets the user sign in
// with a Google account and pick a role, then snapshots the token page.
package auth
