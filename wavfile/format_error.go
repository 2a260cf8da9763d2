package wavfile

import "fmt"

// FormatError reports a WAV file that does not match the expected
// 16-bit mono linear PCM layout.
type FormatError struct {
	Path    string
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
