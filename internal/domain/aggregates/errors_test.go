package aggregates

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NewError(CodeNotFound, "Catalog.Resource.Update", "resource 9 not found", nil), "Catalog.Resource.Update: resource 9 not found (not_found)"},
		{NewError(CodeInternal, "Catalog.Resource.Create", "", nil), "Catalog.Resource.Create (internal)"},
		{NewError(CodeConflict, "", "duplicate url", nil), "duplicate url (conflict)"},
		{&Error{Code: CodeRetryable}, "retryable"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.Error())
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(CodeConflict, "op", base))
	assert.True(t, IsCode(err, CodeConflict))
	assert.ErrorIs(t, err, base)
	assert.NoError(t, Wrap(CodeInternal, "op", nil))
	assert.Equal(t, ErrorCode(""), CodeOf(base))
	assert.False(t, IsCode(nil, ""))
}

func TestFieldsOf(t *testing.T) {
	err := fmt.Errorf("create: %w", NewFieldError(CodeValidation, "op", "name required", "name"))
	assert.Equal(t, []string{"name"}, FieldsOf(err))
	assert.Nil(t, FieldsOf(errors.New("plain")))
}

func TestFieldsOfSurvivesRewrap(t *testing.T) {
	inner := NewFieldError(CodeConflict, "inner", "duplicate url", "url")
	err := Wrap(CodeConflict, "outer", fmt.Errorf("tx: %w", inner))
	assert.Equal(t, []string{"url"}, FieldsOf(err))
}
