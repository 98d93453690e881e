package payment

import (
	"context"
	"sync"
)

// Launcher performs the provider-specific step that shows the widget to the payer.
type Launcher interface {
	Launch(ctx context.Context, cfg Config) (Launch, error)
}

// Bridge is a Widget whose terminal callbacks arrive out of band: from the browser
// after the popup closes, or from a provider webhook. Callbacks are held by reference
// until one of Resolve or Cancel consumes them.
type Bridge struct {
	mu       sync.Mutex
	launcher Launcher
	pending  map[string]Callbacks
}

func NewBridge(launcher Launcher) *Bridge {
	return &Bridge{
		launcher: launcher,
		pending:  make(map[string]Callbacks),
	}
}

func (b *Bridge) Open(ctx context.Context, cfg Config, cb Callbacks) (Launch, error) {
	b.mu.Lock()
	b.pending[cfg.Reference] = cb
	b.mu.Unlock()

	launch, err := b.launcher.Launch(ctx, cfg)
	if err != nil {
		b.forget(cfg.Reference)
		return Launch{}, err
	}
	return launch, nil
}

func (b *Bridge) Resolve(reference string, r Result) error {
	cb, ok := b.take(reference)
	if !ok {
		return ErrUnknownReference
	}
	if r.Reference == "" {
		r.Reference = reference
	}
	cb.OnResult(r)
	return nil
}

func (b *Bridge) Cancel(reference string) error {
	cb, ok := b.take(reference)
	if !ok {
		return ErrUnknownReference
	}
	cb.OnCancel()
	return nil
}

// Awaiting reports whether a callback is still registered for reference.
func (b *Bridge) Awaiting(reference string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[reference]
	return ok
}

func (b *Bridge) take(reference string) (Callbacks, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.pending[reference]
	if ok {
		delete(b.pending, reference)
	}
	return cb, ok
}

func (b *Bridge) forget(reference string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, reference)
}
