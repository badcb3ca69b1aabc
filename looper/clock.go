package looper

import (
	"time"

	"github.com/ScaleFT/monotime"
)

// Clock returns a monotonic reading. Only differences between readings matter.
type Clock func() time.Duration

// MonoClock reads the system monotonic clock
func MonoClock() time.Duration {
	return time.Duration(monotime.Now())
}
