package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "inventory_source_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{
			name:     "basic export",
			filename: "inventory.csv",
			data:     []byte("id,name,price\n1,\"Sedan, Deluxe\",3200\n"),
		},
		{
			name:     "header only",
			filename: "empty.csv",
			data:     []byte("id,name,price\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			err := os.WriteFile(filePath, tt.data, 0644)
			require.NoError(t, err)

			loaded, err := NewFileSource(filePath).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)
		})
	}

	t.Run("load nonexistent export", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(tmpDir, "nonexistent.csv")).Load(context.Background())
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestTestSource(t *testing.T) {
	src := NewTestSource([]byte("id\n1\n"))
	b, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(b))
	assert.Equal(t, 1, src.Calls())

	_, err = NewTestSourceWithError().Load(context.Background())
	assert.Error(t, err)
}
