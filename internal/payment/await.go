package payment

import "sync"

// Outcome is the single terminal event of a widget: a result or a cancellation.
type Outcome struct {
	Result    Result
	Cancelled bool
}

// Await returns callbacks to hand to a widget and a channel that yields exactly one
// Outcome. The first callback to fire wins; later invocations are ignored.
func Await() (Callbacks, <-chan Outcome) {
	ch := make(chan Outcome, 1)
	var once sync.Once
	deliver := func(o Outcome) {
		once.Do(func() {
			ch <- o
			close(ch)
		})
	}
	return Callbacks{
		OnResult: func(r Result) { deliver(Outcome{Result: r}) },
		OnCancel: func() { deliver(Outcome{Cancelled: true}) },
	}, ch
}
