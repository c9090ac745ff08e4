package ports

// Environment gives access to the process environment.
//
//go:generate go run go.uber.org/mock/mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type Environment interface {
	// Environ returns the environment in KEY=VALUE form.
	Environ() []string
	// Export sets a variable for the current process and its children.
	Export(name, value string) error
	// Executable returns the path of the running program.
	Executable() (string, error)
}
