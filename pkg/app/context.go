package app

import (
	"context"
	"time"
)

const BackgroundTimeoutDuration = time.Minute

func BackgroundTimeoutContext() (context.Context, context.CancelFunc) {
	return BackgroundTimeoutContextDuration(BackgroundTimeoutDuration)
}

func BackgroundTimeoutContextDuration(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
