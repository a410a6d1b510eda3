package transfer

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/vcs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDatasetSave(t *testing.T) {
	dir := t.TempDir()
	records := []catalog.Record{{ID: 1, Title: "Anatomy", DateAdded: "2024-01-01 10:00:00"}}
	dataset, err := NewDataset(dir, func() ([]catalog.Record, error) {
		return records, nil
	}, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	dataset.Save()
	dataset.Wait()

	csvBytes, err := ioutil.ReadFile(filepath.Join(dir, ExportDir, "books.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,title,notes,file_url,date\n1,Anatomy,,,2024-01-01 10:00:00\n", string(csvBytes))
	jsonBytes, err := ioutil.ReadFile(dataset.JSONPath())
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"title": "Anatomy"`)

	status := dataset.Status()
	assert.False(t, status.Saving)
	assert.Equal(t, int64(1), status.Saves)
	assert.False(t, status.LastSave.IsZero())
	assert.Empty(t, status.LastError)
}

func TestDatasetSaveCoalesces(t *testing.T) {
	dir := t.TempDir()
	dataset, err := NewDataset(dir, func() ([]catalog.Record, error) {
		return nil, nil
	}, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		dataset.Save()
	}
	dataset.Wait()
	status := dataset.Status()
	assert.False(t, status.Saving)
	assert.GreaterOrEqual(t, status.Saves, int64(1))
	assert.LessOrEqual(t, status.Saves, int64(20))
}

func TestDatasetSaveError(t *testing.T) {
	dataset, err := NewDataset(t.TempDir(), func() ([]catalog.Record, error) {
		return nil, errors.New("store unavailable")
	}, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	dataset.Save()
	dataset.Wait()
	status := dataset.Status()
	assert.Equal(t, "Error reading catalog: store unavailable", status.LastError)
	assert.Zero(t, status.Saves)
}

func TestDatasetVersionControl(t *testing.T) {
	dir := t.TempDir()
	repo, err := vcs.Open(dir)
	require.NoError(t, err)
	dataset, err := NewDataset(dir, func() ([]catalog.Record, error) {
		return []catalog.Record{{ID: 1, Title: "Anatomy"}}, nil
	}, repo, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, dataset.SaveNow())
	assert.FileExists(t, dataset.CSVPath())
}
