package plaindb

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"sync"

	fileAtomic "github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

// Bucket reads and writes records on a DB
type Bucket interface {
	// Iter iterates over all values, assigning each value to 'v', then calling fn with its ID
	Iter(v interface{}, fn func(id string) (keepGoing bool)) error
	// Get reads the record with key 'id' into 'v'
	Get(id string, v interface{}) (found bool, err error)
	// Put writes the record 'v' with key 'id'
	Put(id string, v interface{}) error
	// Delete removes the records with keys 'ids' in a single save
	Delete(ids ...string) error
	// Replace swaps every record for 'values' in a single save
	Replace(values map[string]interface{}) error
	// Len returns the number of records
	Len() int
}

type bucket struct {
	name  string
	path  string
	mu    sync.RWMutex
	saver func(*bucket) error

	version string
	data    map[string]interface{}
}

type unmarshalBucket struct {
	Version string
	Data    map[string]json.RawMessage
}

type marshalBucket struct {
	Version string
	Data    map[string]interface{}
}

func (b *bucket) Iter(v interface{}, fn func(id string) (keepGoing bool)) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, value := range b.data {
		if err := assign(v, value); err != nil {
			return b.wrapErr(err)
		}
		if !fn(id) {
			return nil
		}
	}
	return nil
}

func (b *bucket) Get(id string, v interface{}) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, found := b.data[id]
	if !found {
		return false, nil
	}
	return found, b.wrapErr(assign(v, value))
}

func (b *bucket) Put(id string, v interface{}) error {
	b.mu.Lock()
	b.data[id] = v
	b.mu.Unlock()
	return b.saver(b)
}

func (b *bucket) Delete(ids ...string) error {
	b.mu.Lock()
	for _, id := range ids {
		delete(b.data, id)
	}
	b.mu.Unlock()
	return b.saver(b)
}

func (b *bucket) Replace(values map[string]interface{}) error {
	data := make(map[string]interface{}, len(values))
	for id, value := range values {
		data[id] = value
	}
	b.mu.Lock()
	b.data = data
	b.mu.Unlock()
	return b.saver(b)
}

func (b *bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

func (b *bucket) wrapErr(err error) error {
	return errors.Wrap(err, "Bucket "+b.name)
}

func encodeBucket(w io.Writer, b *bucket) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)

	b.mu.RLock()
	defer b.mu.RUnlock()
	return enc.Encode(marshalBucket{
		Version: b.version,
		Data:    b.data,
	})
}

// saveBucket atomically replaces the bucket file with the encoded bucket
func saveBucket(b *bucket) error {
	var buf bytes.Buffer
	if err := encodeBucket(&buf, b); err != nil {
		return b.wrapErr(err)
	}
	return b.wrapErr(fileAtomic.WriteFile(b.path, &buf))
}

// assign sets dest's pointer value to source
func assign(dest interface{}, source interface{}) (err error) {
	if dest == nil {
		return errors.New("dest must not be nil")
	}
	defer func() {
		// reflection can panic if not used perfectly. recover and wrap the error until stable
		if v := recover(); v != nil && err == nil {
			err = errors.Errorf("Reflect error during assignment: %+v", v)
		}
	}()

	destValue := reflect.ValueOf(dest)
	destType := destValue.Type()
	if destType.Kind() != reflect.Ptr {
		return errors.Errorf("dest is not a pointer: %T", dest)
	}
	// dereference pointer value and type for assignment
	destValue = destValue.Elem()
	if !destValue.CanSet() {
		return errors.Errorf("Cannot set value for %T: %+v", dest, dest)
	}
	destType = destValue.Type()

	sourceValue := reflect.ValueOf(source)
	if !sourceValue.Type().AssignableTo(destType) {
		return errors.Errorf("Type %T is not assignable to %T", source, dest)
	}
	destValue.Set(sourceValue)
	return nil
}
