package validation_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultimatefreight/freightdesk/pkg/validation"
)

type inner struct {
	Size float64 `json:"size" validate:"gt=0"`
}

type sample struct {
	Name   string             `json:"name" validate:"min=2"`
	Email  string             `json:"email" validate:"required,email"`
	Kind   string             `json:"kind" validate:"oneof=a b"`
	Agreed bool               `json:"agreed" validate:"eq=true"`
	Inner  inner              `json:"inner"`
	Rates  map[string]float64 `json:"rates" validate:"dive,gt=0"`
}

func validSample() sample {
	return sample{
		Name:   "Ada",
		Email:  "ada@example.com",
		Kind:   "a",
		Agreed: true,
		Inner:  inner{Size: 1},
		Rates:  map[string]float64{"USD": 1},
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, validation.Struct(validSample()))
}

func TestStruct_Messages(t *testing.T) {
	s := sample{Name: "A", Email: "nope", Kind: "c", Inner: inner{Size: 0}, Rates: map[string]float64{"EUR": -1}}

	err := validation.Struct(s)
	errs, ok := validation.As(err)
	require.True(t, ok)

	m := errs.Map()
	assert.Equal(t, "must be at least 2 characters", m["name"])
	assert.Equal(t, "must be a valid email address", m["email"])
	assert.Equal(t, "must be one of: a, b", m["kind"])
	assert.Equal(t, "must be accepted", m["agreed"])
	assert.Equal(t, "must be greater than 0", m["inner.size"])
	assert.Equal(t, "must be greater than 0", m["rates[EUR]"])
}

func TestErrors_AddHasOrNil(t *testing.T) {
	var errs validation.Errors
	assert.Nil(t, errs.OrNil())

	errs.Add("b", "is required")
	errs.Add("a", "is invalid")
	assert.True(t, errs.Has("a"))
	assert.False(t, errs.Has("c"))
	assert.Error(t, errs.OrNil())
	assert.Contains(t, errs.Error(), "a is invalid")
}

func TestAs_Wrapped(t *testing.T) {
	base := validation.Errors{{Field: "x", Message: "is required"}}
	wrapped := fmt.Errorf("context: %w", base)

	errs, ok := validation.As(wrapped)
	require.True(t, ok)
	assert.True(t, errs.Has("x"))

	_, ok = validation.As(errors.New("plain"))
	assert.False(t, ok)
}
