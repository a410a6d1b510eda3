package plaindb

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

func TestAssign(t *testing.T) {
	for _, tc := range []interface{}{
		10,
		"some string",
		struct{ A string }{A: "hi"},
		&struct{ A string }{A: "hi"},
		struct {
			A *string
			B []string
		}{A: strPtr("hi"), B: []string{"hi", "there!"}},
	} {
		srcCopy := tc
		var dest interface{}
		assert.NoError(t, assign(&dest, tc))
		assert.Equal(t, tc, dest)
		assert.Equal(t, srcCopy, tc, "Source value should remain unaffected")
	}
}

func TestAssignErrors(t *testing.T) {
	for _, tc := range []struct {
		description  string
		src, dest    interface{}
		expectedDest interface{}
		expectedErr  string
	}{
		{
			description:  "happy path",
			src:          10,
			dest:         new(int),
			expectedDest: intPtr(10),
		},
		{
			description: "nil",
			src:         10,
			dest:        nil,
			expectedErr: "dest must not be nil",
		},
		{
			description: "typed nil",
			src:         10,
			dest:        (*int)(nil),
			expectedErr: "Cannot set value for *int: <nil>",
		},
		{
			description: "incompatible types",
			src:         10,
			dest:        new(string),
			expectedErr: "Type int is not assignable to *string",
		},
		{
			description: "not a pointer",
			src:         10,
			dest:        "lol not a pointer",
			expectedErr: "dest is not a pointer: string",
		},
	} {
		t.Run(tc.description, func(t *testing.T) {
			err := assign(tc.dest, tc.src)
			if tc.expectedErr != "" {
				if assert.Error(t, err) {
					assert.Equal(t, tc.expectedErr, err.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedDest, tc.dest)
		})
	}
}

func TestBucketPutSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")

	b := &bucket{
		name:    "books",
		path:    path,
		version: "2",
		saver:   saveBucket,
		data: map[string]interface{}{
			"1": "some string",
			"2": 1,
		},
	}

	require.NoError(t, b.Put("3", true))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(`
{
    "Version": "2",
    "Data": {
        "1": "some string",
        "2": 1,
        "3": true
    }
}
`)+"\n", string(data))

	matches, err := filepath.Glob(path + "*")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, matches, "temp files should be cleaned up")
}

func TestBucketGet(t *testing.T) {
	b := &bucket{
		data: map[string]interface{}{
			"a": "some string",
		},
	}

	var value string

	found, err := b.Get("b", &value)
	assert.False(t, found)
	assert.NoError(t, err)

	found, err = b.Get("a", &value)
	assert.True(t, found)
	assert.NoError(t, err)
	assert.Equal(t, "some string", value)
}

func TestBucketPut(t *testing.T) {
	var b *bucket
	b = &bucket{
		data: map[string]interface{}{
			"a": "b",
			"c": 1,
		},
		saver: func(saveB *bucket) error {
			assert.Equal(t, b, saveB)
			return nil
		},
	}

	require.NoError(t, b.Put("some ID", "some value"))

	var value string
	found, err := b.Get("some ID", &value)
	assert.True(t, found)
	assert.NoError(t, err)
	assert.Equal(t, "some value", value)
	assert.Equal(t, 3, b.Len())
}

func TestBucketDelete(t *testing.T) {
	saves := 0
	b := &bucket{
		data: map[string]interface{}{
			"1": "a",
			"2": "b",
			"3": "c",
		},
		saver: func(*bucket) error {
			saves++
			return nil
		},
	}

	require.NoError(t, b.Delete("1", "3", "not a key"))
	assert.Equal(t, 1, saves, "Delete should save once")
	assert.Equal(t, map[string]interface{}{"2": "b"}, b.data)
}

func TestBucketReplace(t *testing.T) {
	saves := 0
	b := &bucket{
		data: map[string]interface{}{
			"1": "a",
		},
		saver: func(*bucket) error {
			saves++
			return nil
		},
	}

	values := map[string]interface{}{"5": "e", "6": "f"}
	require.NoError(t, b.Replace(values))
	assert.Equal(t, 1, saves)
	assert.Equal(t, values, b.data)

	values["7"] = "g"
	assert.Equal(t, 2, b.Len(), "Replace should copy its input")
}

func TestBucketIter(t *testing.T) {
	m := map[string]interface{}{
		"a": "some string",
		"b": true,
		"c": struct{ C string }{C: "some C"},
	}

	b := &bucket{
		name: "books",
		data: m,
	}

	t.Run("all records", func(t *testing.T) {
		var value interface{}
		times := 0
		err := b.Iter(&value, func(id string) bool {
			assert.Equal(t, m[id], value)
			times++
			return true
		})
		require.NoError(t, err)
		assert.Equal(t, len(m), times)
	})

	t.Run("2 records", func(t *testing.T) {
		var value interface{}
		times := 0
		err := b.Iter(&value, func(id string) bool {
			times++
			return times < 2
		})
		require.NoError(t, err)
		assert.Equal(t, 2, times)
	})

	t.Run("invalid destination", func(t *testing.T) {
		var value bool
		err := b.Iter(&value, func(id string) bool {
			return true
		})
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "Bucket books: ")
		}
	})
}
