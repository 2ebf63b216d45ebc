// Package form builds and submits the hidden login form that carries the OAuth code
// and the selected Vault role to the webflow server.
package form
