package sequence

import "fmt"

// Sequence is a named monotonic counter rendered as prefix + zero-padded number.
type Sequence struct {
	Code       string
	Prefix     string
	Padding    int
	NumberNext int64
}

// Format renders number the way names allocated from s look, e.g. E031000045.
func (s Sequence) Format(number int64) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.Padding, number)
}
