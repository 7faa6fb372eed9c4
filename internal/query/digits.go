package query

import "strings"

// DigitsOnly strips every non-digit character.
func DigitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskCPF formats up to eleven digits progressively as 000.000.000-00.
func MaskCPF(value string) string {
	v := DigitsOnly(value)
	if len(v) > 11 {
		v = v[:11]
	}
	switch {
	case len(v) <= 3:
		return v
	case len(v) <= 6:
		return v[:3] + "." + v[3:]
	case len(v) <= 9:
		return v[:3] + "." + v[3:6] + "." + v[6:]
	default:
		return v[:3] + "." + v[3:6] + "." + v[6:9] + "-" + v[9:]
	}
}

// MaskCEP formats up to eight digits as 00000-000.
func MaskCEP(value string) string {
	v := DigitsOnly(value)
	if len(v) > 8 {
		v = v[:8]
	}
	if len(v) <= 5 {
		return v
	}
	return v[:5] + "-" + v[5:]
}

// IsValidBrazilZip reports whether the value carries exactly eight digits.
func IsValidBrazilZip(zip string) bool {
	return len(DigitsOnly(zip)) == 8
}

// IsValidCPF checks the two verifier digits of a Brazilian CPF.
func IsValidCPF(value string) bool {
	cpf := DigitsOnly(value)
	if len(cpf) != 11 {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == 11 {
		return false
	}

	digit := func(length int) int {
		sum := 0
		for i := 0; i < length; i++ {
			sum += int(cpf[i]-'0') * (length + 1 - i)
		}
		check := 11 - sum%11
		if check >= 10 {
			return 0
		}
		return check
	}

	return digit(9) == int(cpf[9]-'0') && digit(10) == int(cpf[10]-'0')
}
