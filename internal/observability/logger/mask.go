package logger

import "strings"

// MaskCardNumber masks a card number, preserving only the last 4 digits.
func MaskCardNumber(value string) string {
	return maskLast4(digitsOnly(value))
}

// MaskTaxID masks a CPF/CNPJ, preserving only the last 4 digits.
func MaskTaxID(value string) string {
	return maskLast4(digitsOnly(value))
}

// MaskCCV fully masks a card verification code.
func MaskCCV(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.Repeat("*", len(value))
}

// MaskAccessToken masks a provider access token, preserving the last 4
// characters.
func MaskAccessToken(value string) string {
	return maskLast4(strings.TrimSpace(value))
}

// MaskAuthorization masks bearer tokens, preserving the scheme.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Fields(value)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return "Bearer " + maskLast4(parts[1])
	}
	return maskLast4(value)
}

func maskLast4(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
