package validator

import "errors"

// ErrInvalidCPF indicates a malformed CPF or one with wrong check digits
var ErrInvalidCPF = errors.New("invalid CPF")

// ValidateCPF checks a Brazilian CPF (taxpayer id) and returns it as 11 digits
func ValidateCPF(cpf string) (string, error) {
	digits := (&PhoneValidator{}).Sanitize(cpf)
	if len(digits) != 11 {
		return "", ErrInvalidCPF
	}

	allSame := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return "", ErrInvalidCPF
	}

	if cpfCheckDigit(digits[:9]) != digits[9] || cpfCheckDigit(digits[:10]) != digits[10] {
		return "", ErrInvalidCPF
	}
	return digits, nil
}

// cpfCheckDigit computes the next check digit of the given prefix
func cpfCheckDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	rest := sum % 11
	if rest < 2 {
		return '0'
	}
	return byte('0' + 11 - rest)
}
