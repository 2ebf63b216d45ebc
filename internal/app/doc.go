// Package app wires the configuration, clients and services together for each command:
// the webflow server, the headless and browser logins, and URL inspection.
package app
