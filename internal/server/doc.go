// Package server implements the webflow HTTP server.
//
// The server redirects to the Google OAuth consent page, lists the Vault roles
// once Google redirects back with a code and exchanges the code for a Vault token
// through the Google account auth plugin.
package server
