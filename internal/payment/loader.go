package payment

import (
	"context"
	"fmt"
	"sync"
)

type LoadFunc func(ctx context.Context) (Widget, error)

// Loader fetches the widget on first use and caches it for the rest of the process.
// A failed load is not cached; the next attempt tries again.
type Loader struct {
	mu     sync.Mutex
	load   LoadFunc
	widget Widget
}

func NewLoader(load LoadFunc) *Loader {
	return &Loader{load: load}
}

// Static returns a Loader for a widget that needs no loading.
func Static(w Widget) *Loader {
	return &Loader{widget: w}
}

func (l *Loader) Load(ctx context.Context) (Widget, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.widget != nil {
		return l.widget, nil
	}
	if l.load == nil {
		return nil, fmt.Errorf("%w: no loader configured", ErrLoad)
	}

	w, err := l.load(ctx)
	if err == nil && w == nil {
		err = fmt.Errorf("loader returned no widget")
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	l.widget = w
	return w, nil
}
