package accel

// BuilderOption is a function that configures a Builder during construction.
type BuilderOption func(*builder)

// WithMaxLeafTriangles sets the triangle count at or below which a node becomes a leaf.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the leaf size
//
// Returns:
//   - BuilderOption: a function that applies the option to a builder
func WithMaxLeafTriangles(n int) BuilderOption {
	return func(b *builder) {
		if n >= 1 {
			b.maxLeafTriangles = n
		}
	}
}

// WithWorkers sets the number of pool workers used to transform meshes.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - BuilderOption: a function that applies the option to a builder
func WithWorkers(n int) BuilderOption {
	return func(b *builder) {
		if n >= 1 {
			b.workers = n
		}
	}
}
