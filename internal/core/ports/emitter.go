package ports

// Emitter writes the generated document.
//
//go:generate go run go.uber.org/mock/mockgen -source=emitter.go -destination=mocks/mock_emitter.go -package=mocks
type Emitter interface {
	// Emit writes document to path. It reports false if the file already held the same document.
	Emit(path string, document any) (bool, error)
	// Check returns domain.ErrOutputStale if path does not hold document.
	Check(path string, document any) error
}
