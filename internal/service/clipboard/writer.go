package clipboard

//go:generate $MOCKGEN -source=writer.go -destination=mocks/writer_mock.go

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnsupported indicates that no clipboard utility is available on this system.
var ErrUnsupported = errors.New("clipboard is not supported on this system")

// Writer places text on a clipboard.
type Writer interface {
	// WriteAll replaces the clipboard content with text.
	WriteAll(text string) error
}

// SystemWriter writes to the operating system clipboard.
type SystemWriter struct{}

// NewSystemWriter returns a Writer backed by the operating system clipboard.
func NewSystemWriter() *SystemWriter {
	return &SystemWriter{}
}

// WriteAll replaces the system clipboard content with text.
func (*SystemWriter) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}

	return clipboard.WriteAll(text)
}
