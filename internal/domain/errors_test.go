package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "trip not found", NotFound("trip").Error())
	assert.Equal(t, "seat conflict: seat 12 is already reserved", Conflict("seat", "seat 12 is already reserved").Error())
	assert.Equal(t, "entry_value: must be positive", Invalid("entry_value", "must be positive").Error())
	assert.Equal(t, "insufficient credit balance: available 10, requested 20",
		InsufficientBalanceError{Available: "10", Requested: "20"}.Error())
	assert.Equal(t, "unauthorized", UnauthorizedError{}.Error())
	assert.Equal(t, "forbidden", ForbiddenError{}.Error())
}

func TestIsHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("checkout failed: %w", Conflict("seat", "taken"))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))

	wrapped = fmt.Errorf("deduct: %w", InsufficientBalanceError{})
	assert.True(t, IsInsufficientBalance(wrapped))
	assert.False(t, IsValidation(wrapped))

	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NotFound("reservation"))))
	assert.True(t, IsValidation(fmt.Errorf("x: %w", Invalid("amount", "required"))))
	assert.True(t, IsUnauthorized(fmt.Errorf("x: %w", UnauthorizedError{Msg: "bad signature"})))
	assert.True(t, IsForbidden(fmt.Errorf("x: %w", ForbiddenError{})))
}
