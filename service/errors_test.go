package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skryldev/restfull-books/service"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, service.KindNotFound, service.KindOf(service.NotFound("x")))
	assert.Equal(t, service.KindGateway, service.KindOf(service.Gateway("x")))
	assert.Equal(t, service.KindInvalidField, service.KindOf(service.InvalidField("f", "x")))
	assert.Equal(t, service.KindInternal, service.KindOf(service.Internal("x", cause)))
	assert.Equal(t, service.KindInternal, service.KindOf(cause), "plain errors are internal")
	assert.Equal(t, service.KindNotFound,
		service.KindOf(fmt.Errorf("wrapped: %w", service.NotFound("x"))), "kind survives wrapping")
}

func TestInternal_ChainsCause(t *testing.T) {
	cause := errors.New("disk full")

	err := service.Internal("Failed to save user", cause)
	assert.EqualError(t, err, "Failed to save user: disk full")
	assert.ErrorIs(t, err, cause)

	assert.EqualError(t, service.Internal("", cause), "disk full")
	assert.EqualError(t, service.Internal("plain", nil), "plain")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "not_found", service.KindNotFound.String())
	assert.Equal(t, "gateway", service.KindGateway.String())
	assert.Equal(t, "invalid_field", service.KindInvalidField.String())
	assert.Equal(t, "internal", service.KindInternal.String())
}
