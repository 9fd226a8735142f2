package sequence

import "errors"

var (
	ErrSequenceNotFound = errors.New("sequence not found")
)
