// Package clipboard binds the copy button of the token page to the system clipboard.
package clipboard
