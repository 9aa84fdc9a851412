package sig

import "github.com/AnatoleLucet/sig/v2/internal"

type Owner struct {
	owner *internal.Owner
}

// NewOwner creates a new reactive owner.
// An owner manages the lifecycle of reactive nodes created within its context.
// It is itself disposed along with the current owner, if any.
func NewOwner() *Owner {
	return &Owner{
		internal.GetRuntime().NewOwner(),
	}
}

// GetOwner returns the current owner, or nil outside of any.
func GetOwner() *Owner {
	o := internal.GetRuntime().CurrentOwner()
	if o == nil {
		return nil
	}
	return &Owner{o}
}

// Run a function within the context of this owner.
// Each reactive node created within the function will be a child of this owner,
// and will be disposed when owner.Dispose() is called on this owner.
// Effects created by fn run before Run returns.
func (o *Owner) Run(fn func() error) error {
	var err error
	internal.GetRuntime().RunWithOwner(o.owner, func() { err = fn() })
	return err
}

// Dispose this owner and all its children.
func (o *Owner) Dispose() { internal.GetRuntime().Dispose(o.owner) }

// Add a cleanup function to be called ONCE when the owner is disposed.
func (o *Owner) OnCleanup(fn func()) { o.owner.OnCleanup(fn) }

// Add a function to be called when a panic occurs within this owner.
// If no error listener is registered up the owner chain, the panic will propagate as usual.
func (o *Owner) OnError(fn func(error)) { o.owner.OnError(fn) }

// RunWithOwner runs fn as if it was called where o is current.
func RunWithOwner[T any](o *Owner, fn func() T) T {
	var result T
	var owner *internal.Owner
	if o != nil {
		owner = o.owner
	}
	internal.GetRuntime().RunWithOwner(owner, func() { result = fn() })
	return result
}

// NewRoot runs fn under a new root. The root is not disposed with the
// current owner, only when fn's dispose is called, but it still sees the
// current owner's context and error handlers.
func NewRoot[T any](fn func(dispose func()) T) T {
	r := internal.GetRuntime()
	root := r.NewRoot()

	var result T
	r.RunWithOwner(root, func() {
		result = fn(func() { r.Dispose(root) })
	})
	return result
}
