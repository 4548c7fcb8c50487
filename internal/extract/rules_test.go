package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

func TestPattern(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		text   string
		want   string
		wantOK bool
	}{
		{"first group", `CFOP\s*:\s*(\d+)`, "cfop: 1933 CFOP: 5933", "1933", true},
		{"no match", `CFOP\s*:\s*(\d+)`, "Acumulador: 12", "", false},
		{"empty group", `Acumulador\s*:\s*(\d*)`, "Acumulador: x", "", false},
		{"trimmed", `Nome:(.+)$`, "Nome:  ACME  ", "ACME", true},
		{"no group", `CFOP`, "CFOP", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Pattern(constants.FieldCFOP, tt.expr).Extract(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBetween(t *testing.T) {
	rule := Between(constants.FieldCompanyName, `Verifica[cç][aã]o:\s*\S+`, `\s*CPF/CNPJ`)

	got, ok := rule.Extract("Código de Verificação: ab12 ACME LTDA CPF/CNPJ: 1")
	assert.True(t, ok)
	assert.Equal(t, "ACME LTDA", got)

	_, ok = rule.Extract("Código de Verificação: ab12 ACME LTDA")
	assert.False(t, ok, "missing end marker")

	_, ok = rule.Extract("ACME LTDA CPF/CNPJ: 1")
	assert.False(t, ok, "missing start marker")

	_, ok = rule.Extract("Verificação: ab12 CPF/CNPJ: 1")
	assert.False(t, ok, "nothing between markers")
}

func TestFirstOf(t *testing.T) {
	rule := FirstOf(constants.FieldIssueDate,
		Pattern(constants.FieldIssueDate, `Emitida em\s*:?\s*`+dateExpr),
		Pattern(constants.FieldIssueDate, `Data\s*:\s*`+dateExpr),
	)
	assert.Equal(t, constants.FieldIssueDate, rule.Field())

	got, ok := rule.Extract("Data: 01/02/2024 Emitida em 03/04/2024")
	assert.True(t, ok)
	assert.Equal(t, "03/04/2024", got, "earlier rules win over earlier text")

	got, ok = rule.Extract("Data: 01/02/2024")
	assert.True(t, ok)
	assert.Equal(t, "01/02/2024", got)

	_, ok = rule.Extract("sem data")
	assert.False(t, ok)
}

func TestMoney(t *testing.T) {
	rule := Money(constants.FieldNetValue, `Valor\s*L[ií]quido`)
	tests := []struct {
		text string
		want string
	}{
		{"Valor Líquido: R$ 2.921,54", "2.921,54"},
		{"Valor Líquido R$2.921,54", "2.921,54"},
		{"VALOR LIQUIDO: 7", "7"},
		{"Valor Líquido: R$ 10,00, pago", "10,00"},
	}
	for _, tt := range tests {
		got, ok := rule.Extract(tt.text)
		assert.True(t, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
