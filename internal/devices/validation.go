package devices

import (
	"errors"
	"fmt"
	"unicode"
)

var (
	ErrInvalidIMEI     = errors.New("IMEI must be exactly 15 numeric digits")
	ErrLockCodeMissing = errors.New("lock code is required for the selected lock type")
	ErrInvalidLockCode = errors.New("lock code does not match the lock type format")
)

// ValidateIMEI enforces the 15 numeric digit format. Empty values are
// allowed; uniqueness is checked at the repository layer.
func ValidateIMEI(imei string) error {
	if len(imei) != 15 {
		return ErrInvalidIMEI
	}
	for _, r := range imei {
		if r < '0' || r > '9' {
			return ErrInvalidIMEI
		}
	}
	return nil
}

// ValidateLockCode checks the code against the lock type. PINs are 4 to 8
// digits, patterns are dot sequences of at least 4 digits 1-9, passwords are
// alphanumeric with a 4 character minimum.
func ValidateLockCode(lockType LockType, code *string) error {
	if lockType == LockNone {
		return nil
	}
	if code == nil || *code == "" {
		return ErrLockCodeMissing
	}

	switch lockType {
	case LockPIN:
		if len(*code) < 4 || len(*code) > 8 {
			return fmt.Errorf("%w: PIN must be 4 to 8 digits", ErrInvalidLockCode)
		}
		for _, r := range *code {
			if !unicode.IsDigit(r) {
				return fmt.Errorf("%w: PIN must be numeric", ErrInvalidLockCode)
			}
		}
	case LockPattern:
		if len(*code) < 4 {
			return fmt.Errorf("%w: pattern must connect at least 4 points", ErrInvalidLockCode)
		}
		for _, r := range *code {
			if r < '1' || r > '9' {
				return fmt.Errorf("%w: pattern points are digits 1-9", ErrInvalidLockCode)
			}
		}
	case LockPassword:
		if len(*code) < 4 {
			return fmt.Errorf("%w: password must be at least 4 characters", ErrInvalidLockCode)
		}
		for _, r := range *code {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return fmt.Errorf("%w: password must be alphanumeric", ErrInvalidLockCode)
			}
		}
	}
	return nil
}
