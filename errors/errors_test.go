package errors

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrIf(t *testing.T) {
	var errs Errors
	assert.False(t, errs.ErrIf(false, "not added"))
	assert.True(t, errs.ErrIf(true, "line %d: missing title", 3))
	require.Len(t, errs, 1)
	assert.Equal(t, "line 3: missing title", errs[0].Error())
}

func TestAddErr(t *testing.T) {
	var errs Errors
	assert.True(t, errs.AddErr(nil))
	assert.False(t, errs.AddErr(errors.New("first")))
	assert.False(t, errs.AddErr(Errors{errors.New("second"), errors.New("third")}))
	assert.Len(t, errs, 3)
	assert.Equal(t, "first\nsecond\nthird", errs.Error())
	assert.Equal(t, []string{"first", "second", "third"}, errs.Strings())
}

func TestErrOrNil(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.ErrOrNil())

	single := errors.New("single")
	errs.AddErr(single)
	assert.Equal(t, single, errs.ErrOrNil())

	errs.AddErr(errors.New("another"))
	assert.Equal(t, errs, errs.ErrOrNil())
}

type jsonErr struct{}

func (jsonErr) Error() string { return "custom" }

func (jsonErr) MarshalJSON() ([]byte, error) { return []byte(`{"Custom":true}`), nil }

func TestMarshalJSON(t *testing.T) {
	errs := Errors{errors.New("plain"), jsonErr{}}
	b, err := json.Marshal(errs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Error":"plain"},{"Custom":true}]`, string(b))
}
