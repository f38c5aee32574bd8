package application

import "time"

// Clock lets tests control "now" instead of waiting out real windows.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
