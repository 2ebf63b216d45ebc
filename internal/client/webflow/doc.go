// Package webflow provides the HTTP page client that plays the part of the browser
// in the headless login flow: it loads webflow pages and submits their forms.
package webflow
