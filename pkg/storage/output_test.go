package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "twcrawler/pkg/errors"
)

func TestFormatRecord(t *testing.T) {
	tests := []struct {
		name      string
		id        int64
		survivors []int64
		want      string
	}{
		{"two survivors", 42, []int64{1, 3}, "42 [1, 3]"},
		{"no survivors", 42, nil, "42 []"},
		{"empty slice", 7, []int64{}, "7 []"},
		{"single", 9, []int64{1374004777531007833}, "9 [1374004777531007833]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRecord(tt.id, tt.survivors))
		})
	}

	assert.Equal(t, "[783214]", FormatIDs([]int64{783214}))
}

func TestOutputLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "output2.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("1 [2]\n"), 0644))

	log, err := OpenOutputLog(path)
	require.NoError(t, err)

	require.NoError(t, log.WriteRecord(2, []int64{5, 6}))
	require.NoError(t, log.WriteRecord(5, nil))
	assert.Equal(t, 2, log.Records())
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 [2]\n2 [5, 6]\n5 []\n", string(data))
}

func TestWriteAfterClose(t *testing.T) {
	log, err := OpenOutputLog(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	err = log.WriteRecord(1, nil)
	assert.ErrorIs(t, err, errs.ErrOutputUnavailable)
}

func TestOpenOutputLogUnavailable(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be
	blocked := filepath.Join(dir, "output2.txt")
	require.NoError(t, os.Mkdir(blocked, 0755))

	_, err := OpenOutputLog(blocked)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrOutputUnavailable))
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("42 [1, 3]\n")
	require.NoError(t, err)
	assert.Equal(t, Record{ID: 42, Survivors: []int64{1, 3}}, rec)

	rec, err = ParseRecord("42 []")
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.ID)
	assert.Empty(t, rec.Survivors)

	rec, err = ParseRecord("5 [7L, 8L]")
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, rec.Survivors)

	for _, bad := range []string{"", "42", "x []", "42 1, 3", "42 [a]"} {
		_, err := ParseRecord(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	log, err := OpenOutputLog(path)
	require.NoError(t, err)
	require.NoError(t, log.WriteRecord(1, []int64{2, 3}))
	require.NoError(t, log.WriteRecord(2, nil))
	require.NoError(t, log.Close())

	records, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []int64{2, 3}, records[0].Survivors)
	assert.Equal(t, int64(2), records[1].ID)

	_, err = ReadRecords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
