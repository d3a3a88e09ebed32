package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := Conflict("already swiped")
	wrapped := fmt.Errorf("record swipe: %w", base)

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindConflict, kind)
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindNotFound))
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("unique violation")
	err := Wrap(KindConflict, "duplicate wishlist entry", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "conflict: duplicate wishlist entry: unique violation", err.Error())
}

func TestKind_Code(t *testing.T) {
	assert.Equal(t, InvalidInput, KindValidation.Code())
	assert.Equal(t, Duplicate, KindConflict.Code())
	assert.Equal(t, ResourceMissing, KindNotFound.Code())
	assert.Equal(t, PermissionDenied, KindPermission.Code())
	assert.Equal(t, SystemError, Kind(0).Code())
}
