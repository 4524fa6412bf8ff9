package feedback

import (
	"context"
	"sync"

	"datalogger-go/types"
)

func contextWithCancel() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

type lockedIndicator struct {
	mu sync.Mutex
	c  types.Color
}

func (l *lockedIndicator) Set(c types.Color) {
	l.mu.Lock()
	l.c = c
	l.mu.Unlock()
}

func (l *lockedIndicator) last() types.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c
}
