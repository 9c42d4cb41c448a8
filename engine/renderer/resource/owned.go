package resource

// Owned holds exclusive ownership of a GPU object. Replacing the held value with Reset
// releases the previous one, and Release is safe to call any number of times, so a
// component never needs nil-checked release calls of its own.
//
// The zero value holds nothing.
type Owned[T Releaser] struct {
	value T
	valid bool
}

// Own wraps v in a new Owned.
//
// Parameters:
//   - v: the object to take ownership of
//
// Returns:
//   - Owned[T]: the owning wrapper
func Own[T Releaser](v T) Owned[T] {
	return Owned[T]{value: v, valid: true}
}

// Get returns the held object, or the zero value of T when empty.
func (o *Owned[T]) Get() T {
	return o.value
}

// Valid reports whether an object is currently held.
func (o *Owned[T]) Valid() bool {
	return o.valid
}

// Reset releases the held object (if any) and takes ownership of v.
//
// Parameters:
//   - v: the replacement object
func (o *Owned[T]) Reset(v T) {
	o.Release()
	o.value = v
	o.valid = true
}

// Release frees the held object and leaves the wrapper empty.
func (o *Owned[T]) Release() {
	if !o.valid {
		return
	}
	o.value.Release()
	var zero T
	o.value = zero
	o.valid = false
}
