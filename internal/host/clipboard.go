package host

import "github.com/atotto/clipboard"

// Clipboard abstracts the system pasteboard so tests can fake it.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// SystemClipboard uses the platform clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Read() (string, error) {
	return clipboard.ReadAll()
}

func (SystemClipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}
