package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrEventNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrTicketNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrCounterMissing, ErrIntegrity)
	assert.NotErrorIs(t, ErrEventNotFound, ErrIntegrity)

	var verr error = NewValidationError("name", "name is required")
	assert.ErrorIs(t, verr, ErrValidation)
	assert.Equal(t, "name is required", verr.Error())

	var terr error = &TransitionError{From: TicketStatusDone, To: TicketStatusCanceled}
	assert.ErrorIs(t, terr, ErrInvalidTransition)
	assert.Contains(t, terr.Error(), "done")

	cause := errors.New("connection refused")
	serr := &StoreError{Op: "list events", Err: cause}
	assert.ErrorIs(t, serr, ErrStore)
	assert.ErrorIs(t, serr, cause)
	assert.Equal(t, "list events: connection refused", serr.Error())
}

func TestWrapStoreError(t *testing.T) {
	assert.NoError(t, WrapStoreError("op", nil))

	wrapped := fmt.Errorf("allocate: %w", ErrEventNotFound)
	assert.Equal(t, wrapped, WrapStoreError("op", wrapped))

	raw := errors.New("disk full")
	err := WrapStoreError("create ticket", raw)
	var storeErr *StoreError
	assert.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "create ticket", storeErr.Op)
	assert.True(t, IsKnown(err))
	assert.False(t, IsKnown(raw))
}
