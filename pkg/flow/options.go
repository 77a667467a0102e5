package flow

// Option configures a Flow.
type Option func(*Flow)

// WithRecomputer attaches a schema recomputer.
func WithRecomputer(r SchemaRecomputer) Option {
	return func(f *Flow) {
		f.recomputer = r
	}
}

// WithCompleter attaches a completion handler.
func WithCompleter(c Completer) Option {
	return func(f *Flow) {
		f.completer = c
	}
}

// WithOrigin records the feature that started the flow.
func WithOrigin(origin string) Option {
	return func(f *Flow) {
		f.origin = origin
	}
}

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(f *Flow) {
		if id != "" {
			f.id = id
		}
	}
}

// WithState seeds the flow with initial values. The static schema is kept
// as given; seeded keys are not checked against it.
func WithState(state State) Option {
	return func(f *Flow) {
		for k, v := range state {
			f.state[k] = cloneValue(v)
		}
	}
}
