package identity

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCPF(t *testing.T) {
	assert.Equal(t, "12345678900", NormalizeCPF("123.456.789-00"))
	assert.Equal(t, "12345678900", NormalizeCPF("  123 456 789 00  "))
	assert.Equal(t, "", NormalizeCPF(""))
	assert.Equal(t, "", NormalizeCPF("abc-.,"))
	// no length enforcement here, that is the caller's job
	assert.Equal(t, "123", NormalizeCPF("1a2b3c"))
}

func TestNormalizeCPF_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)
	for i := 0; i < 500; i++ {
		raw := faker.Sentence(3) + faker.Phone() + faker.Password(true, true, true, true, true, 12)
		once := NormalizeCPF(raw)
		assert.Equal(t, once, NormalizeCPF(once), "input %q", raw)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "joao da silva", NormalizeText("  João da Silva "))
	assert.Equal(t, "rua sao jose", NormalizeText("Rua São José"))
	assert.Equal(t, "", NormalizeText("   "))
	// inner whitespace is preserved, only the edges are trimmed
	assert.Equal(t, "a  b", NormalizeText(" A  B "))
}

func TestValidCPF(t *testing.T) {
	valid := []string{"529.982.247-25", "52998224725", "111.444.777-35"}
	for _, cpf := range valid {
		assert.True(t, ValidCPF(cpf), cpf)
	}

	invalid := []string{
		"",
		"123",
		"529.982.247-24", // wrong second check digit
		"111.111.111-11", // repeated digits are rejected outright
		"000.000.000-00",
		"529982247250", // 12 digits
	}
	for _, cpf := range invalid {
		assert.False(t, ValidCPF(cpf), cpf)
	}
}

func TestValidCNPJ(t *testing.T) {
	assert.True(t, ValidCNPJ("11.222.333/0001-81"))
	assert.True(t, ValidCNPJ("11222333000181"))
	assert.False(t, ValidCNPJ("11.222.333/0001-82"))
	assert.False(t, ValidCNPJ("11111111111111"))
	assert.False(t, ValidCNPJ("123"))
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "529.982.247-25", FormatCPF("52998224725"))
	// anything that is not 11 digits passes through untouched
	assert.Equal(t, "123", FormatCPF("123"))
}
