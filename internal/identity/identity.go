// Package identity canonicalizes the fields used to match a person
// across providers: CPF (the primary identity key), name and address
// fragments. All functions here are pure and total over strings.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeCPF strips every non-digit rune and returns whatever digits
// remain, of any length. Validating the 11-digit length (or the check
// digits) is the caller's job, not the normalizer's.
func NormalizeCPF(raw string) string {
	return Digits(raw)
}

// Digits keeps only ASCII digits. Used for CPF, CNPJ and phone input.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeText trims, lower-cases and folds diacritics so that
// "João" and "joao" compare equal. Substring matching on names and
// addresses runs over this form on both sides.
func NormalizeText(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		return s
	}
	return folded
}

// ValidCPF checks the two verification digits of a Brazilian CPF.
// Accepts formatted or bare input.
func ValidCPF(raw string) bool {
	cpf := NormalizeCPF(raw)
	if len(cpf) != 11 {
		return false
	}
	if allSame(cpf) {
		return false
	}
	if digit(cpf, 10) != checkDigit(cpf, 9) {
		return false
	}
	return digit(cpf, 11) == checkDigit(cpf, 10)
}

// ValidCNPJ checks the two verification digits of a Brazilian CNPJ.
func ValidCNPJ(raw string) bool {
	cnpj := Digits(raw)
	if len(cnpj) != 14 {
		return false
	}
	if allSame(cnpj) {
		return false
	}
	if int(cnpj[12]-'0') != cnpjCheckDigit(cnpj, 12) {
		return false
	}
	return int(cnpj[13]-'0') == cnpjCheckDigit(cnpj, 13)
}

// FormatCPF renders an 11-digit CPF as XXX.XXX.XXX-XX. Anything else
// is returned unchanged.
func FormatCPF(digits string) string {
	if len(digits) != 11 {
		return digits
	}
	return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func digit(cpf string, pos int) int {
	return int(cpf[pos-1] - '0')
}

// checkDigit computes the CPF verification digit over the first n digits.
func checkDigit(cpf string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(cpf[i]-'0') * (n + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		rest = 0
	}
	return rest
}

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// cnpjCheckDigit computes the CNPJ verification digit over the first n digits.
func cnpjCheckDigit(cnpj string, n int) int {
	w := cnpjWeights[len(cnpjWeights)-n:]
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(cnpj[i]-'0') * w[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
