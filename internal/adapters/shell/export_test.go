package shell

// ResolveEnvironment exposes resolveEnvironment for tests.
var ResolveEnvironment = resolveEnvironment

// NewExecutorWithEnviron creates an Executor with a fixed base environment.
func NewExecutorWithEnviron(env []string) *Executor {
	return &Executor{environ: func() []string { return env }}
}
