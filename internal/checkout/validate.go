package checkout

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError points at the form field that failed so the caller can
// highlight it inline. The flow state is preserved for a retry.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	emailShape  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upiShape    = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
	cardDigits  = regexp.MustCompile(`^[0-9]+$`)
	expiryShape = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvShape    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// Luhn reports whether the digit string passes the Luhn checksum.
func Luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// CardDetails are raw card fields. They are validated, tokenized and wiped;
// they never reach a store or a log.
type CardDetails struct {
	HolderName string
	Number     string // digits, spaces allowed
	Expiry     string // MM/YY
	CVV        string
}

func validateCard(c *CardDetails) *FieldError {
	if len(strings.TrimSpace(c.HolderName)) < 2 {
		return &FieldError{Field: "card-name", Message: "Please enter card holder name"}
	}
	number := strings.ReplaceAll(c.Number, " ", "")
	if len(number) < 13 || len(number) > 19 || !cardDigits.MatchString(number) || !Luhn(number) {
		return &FieldError{Field: "card-number", Message: "Please enter a valid card number"}
	}
	if !expiryShape.MatchString(c.Expiry) {
		return &FieldError{Field: "expiry-date", Message: "Please enter expiry in MM/YY"}
	}
	if !cvvShape.MatchString(c.CVV) {
		return &FieldError{Field: "cvv", Message: "Please enter a valid CVV"}
	}
	return nil
}

func validateUPI(vpa string) *FieldError {
	if vpa == "" || !upiShape.MatchString(vpa) {
		return &FieldError{Field: "upi-id", Message: "Please enter a valid UPI ID"}
	}
	return nil
}

func validateBank(bank string) *FieldError {
	if strings.TrimSpace(bank) == "" {
		return &FieldError{Field: "bank-select", Message: "Please select a bank"}
	}
	return nil
}
