package gpu

// Options tunes device creation.
type Options struct {
	// Validation enables API validation and debug messages where the backend
	// supports them.
	Validation bool
}

type Option func(*Options)

func WithValidation(enabled bool) Option {
	return func(o *Options) {
		o.Validation = enabled
	}
}

// ApplyOptions folds opts over the defaults.
func ApplyOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
