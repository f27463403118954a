package compile

import (
	"errors"

	"github.com/matthewbaird/vegalite/internal/spec"
)

// Code classifies a failed compile for clients of the HTTP and WebSocket
// surfaces.
type Code string

const (
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeInvalidChannel         Code = "INVALID_CHANNEL"
	CodeUnsupportedChannel     Code = "UNSUPPORTED_CHANNEL"
	CodeUnsupportedCombination Code = "UNSUPPORTED_COMBINATION"
	CodeInternal               Code = "INTERNAL_ERROR"
)

// Classify returns the code of err. Validation failures also return the
// ValidationError that locates the offending node.
func Classify(err error) (Code, *spec.ValidationError) {
	var ve *spec.ValidationError
	switch {
	case errors.As(err, &ve):
		switch {
		case errors.Is(err, spec.ErrInvalidChannel):
			return CodeInvalidChannel, ve
		case errors.Is(err, spec.ErrUnsupportedChannelForMark):
			return CodeUnsupportedChannel, ve
		}
		return CodeValidation, ve
	case IsInvariant(err):
		return CodeUnsupportedCombination, nil
	}
	return CodeInternal, nil
}
