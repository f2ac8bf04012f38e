package a2s

import "context"

// Pending is a one-shot handle for a request whose answer arrives
// later. It is resolved exactly once, by the client's read loop (or
// rejected if the matching response cannot be decoded). A request that
// never gets a reply leaves its handle unresolved forever; callers
// bound their wait with the context they pass to Wait.
type Pending[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

func rejected[T any](err error) *Pending[T] {
	p := newPending[T]()
	p.reject(err)
	return p
}

func (p *Pending[T]) resolve(v T) {
	p.val = v
	close(p.done)
}

func (p *Pending[T]) reject(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome. It must only be called after Done is
// closed; before that the result is not yet valid.
func (p *Pending[T]) Result() (T, error) {
	return p.val, p.err
}

// Wait blocks until the result is available or the context ends.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
