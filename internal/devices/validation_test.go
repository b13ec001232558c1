package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIMEI(t *testing.T) {
	require.NoError(t, ValidateIMEI("356938035643809"))

	assert.ErrorIs(t, ValidateIMEI("35693803564380"), ErrInvalidIMEI)
	assert.ErrorIs(t, ValidateIMEI("3569380356438090"), ErrInvalidIMEI)
	assert.ErrorIs(t, ValidateIMEI("35693803564380a"), ErrInvalidIMEI)
	assert.ErrorIs(t, ValidateIMEI(""), ErrInvalidIMEI)
}

func TestValidateLockCode(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("none skips validation", func(t *testing.T) {
		assert.NoError(t, ValidateLockCode(LockNone, nil))
		assert.NoError(t, ValidateLockCode(LockNone, str("whatever")))
	})

	t.Run("code required when locked", func(t *testing.T) {
		assert.ErrorIs(t, ValidateLockCode(LockPIN, nil), ErrLockCodeMissing)
		assert.ErrorIs(t, ValidateLockCode(LockPassword, str("")), ErrLockCodeMissing)
	})

	t.Run("pin format", func(t *testing.T) {
		assert.NoError(t, ValidateLockCode(LockPIN, str("1234")))
		assert.NoError(t, ValidateLockCode(LockPIN, str("12345678")))
		assert.ErrorIs(t, ValidateLockCode(LockPIN, str("123")), ErrInvalidLockCode)
		assert.ErrorIs(t, ValidateLockCode(LockPIN, str("123456789")), ErrInvalidLockCode)
		assert.ErrorIs(t, ValidateLockCode(LockPIN, str("12a4")), ErrInvalidLockCode)
	})

	t.Run("pattern format", func(t *testing.T) {
		assert.NoError(t, ValidateLockCode(LockPattern, str("1235789")))
		assert.ErrorIs(t, ValidateLockCode(LockPattern, str("123")), ErrInvalidLockCode)
		assert.ErrorIs(t, ValidateLockCode(LockPattern, str("1230")), ErrInvalidLockCode)
	})

	t.Run("password format", func(t *testing.T) {
		assert.NoError(t, ValidateLockCode(LockPassword, str("abc123")))
		assert.ErrorIs(t, ValidateLockCode(LockPassword, str("ab!")), ErrInvalidLockCode)
		assert.ErrorIs(t, ValidateLockCode(LockPassword, str("abc 123")), ErrInvalidLockCode)
	})
}
