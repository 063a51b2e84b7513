package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	records []Record
	err     error
}

func (f *fakeSource) ListClients(context.Context) ([]Record, error) {
	return f.records, f.err
}

func TestDirectoryRefreshAndLookup(t *testing.T) {
	source := &fakeSource{records: []Record{
		{ID: "c1", FullName: "Ana Quiroga"},
		{ID: "c2", FullName: "Martín Paz"},
	}}
	dir := NewDirectory(source)

	require.NoError(t, dir.Refresh(context.Background()))

	assert.Equal(t, "Ana Quiroga", dir.Name("c1"))
	assert.Equal(t, "Martín Paz", dir.Name("c2"))
	assert.Len(t, dir.All(), 2)
}

func TestDirectoryFallbackName(t *testing.T) {
	dir := NewDirectory(&fakeSource{})
	require.NoError(t, dir.Refresh(context.Background()))

	assert.Equal(t, "Cliente", dir.Name("missing"))
}

func TestDirectoryRefreshFailureKeepsPreviousEntries(t *testing.T) {
	source := &fakeSource{records: []Record{{ID: "c1", FullName: "Ana Quiroga"}}}
	dir := NewDirectory(source)
	require.NoError(t, dir.Refresh(context.Background()))

	source.err = errors.New("db closed")
	err := dir.Refresh(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Ana Quiroga", dir.Name("c1"))
}
