package template

import "qentem/internal/sink"

// Buffer re-exports sink.Buffer under the template package so callers that
// only need to render text don't have to import the sink package directly.
type Buffer = sink.Buffer

// NewBuffer returns an empty Buffer, optionally pre-sized.
func NewBuffer(capacityHint int) *Buffer {
	return sink.NewBuffer(capacityHint)
}
