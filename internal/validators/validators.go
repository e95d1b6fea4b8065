// Package validators holds the format rules for account credentials.
package validators

// Credential lengths
const (
	PINLength      = 4
	PasswordLength = 8
)

// ValidatePIN reports whether pin is exactly four ASCII digits.
func ValidatePIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if !isDigit(pin[i]) {
			return false
		}
	}
	return true
}

// ValidatePassword reports whether password is exactly eight bytes long and
// contains at least one uppercase letter, one lowercase letter and one digit.
// Other characters are allowed but do not count toward any class.
func ValidatePassword(password string) bool {
	if len(password) != PasswordLength {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case isDigit(c):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
