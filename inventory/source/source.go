package source

import (
	"context"
	"errors"
)

// Source yields the raw inventory export. It knows nothing about rows or records.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestSource is a simple in-memory implementation for testing
type TestSource struct {
	data  []byte
	err   error
	calls int
}

func NewTestSource(data []byte) *TestSource {
	return &TestSource{data: data}
}

func NewTestSourceWithError() *TestSource {
	return &TestSource{err: errors.New("not found")}
}

func (t *TestSource) Load(ctx context.Context) ([]byte, error) {
	t.calls++
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// Calls reports how many times Load was invoked.
func (t *TestSource) Calls() int {
	return t.calls
}
