package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts the current time so the scoring window is controllable in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func System() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(System),
)
