package looper

import (
	"errors"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	ErrNilSource      = errors.New("input source must not be nil")
	ErrNilSink        = errors.New("output sink must not be nil")
	ErrInvalidChannel = errors.New("output channel must be 0-15")
	ErrAlreadyPlaying = errors.New("loop is already playing")
	ErrRecording      = errors.New("loop is still recording")
)

// invalidArgument tags a construction-time precondition failure
func invalidArgument(err error, context string) error {
	return fault.Wrap(err,
		fmsg.With(context),
		ftag.With(ftag.InvalidArgument),
	)
}
