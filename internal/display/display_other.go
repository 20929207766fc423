//go:build !linux && !darwin

package display

import (
	"errors"

	"github.com/rs/zerolog"
)

// New reports that no desktop backend exists on this platform.
func New(_ zerolog.Logger) (Display, error) {
	return nil, errors.New("desktop notifications are not supported on this platform")
}
