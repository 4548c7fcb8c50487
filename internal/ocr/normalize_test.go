package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \n\r\t ", want: ""},
		{name: "newlines become spaces", in: "CPF/CNPJ:\n43.035.146/0061-16", want: "CPF/CNPJ: 43.035.146/0061-16"},
		{name: "crlf", in: "Série:\r\n1", want: "Série: 1"},
		{name: "space runs collapse", in: "Valor   dos    serviços:  R$ 2.921,54", want: "Valor dos serviços: R$ 2.921,54"},
		{name: "trimmed", in: "  \n Nº:2024/9918 \n", want: "Nº:2024/9918"},
		{name: "tabs and nbsp", in: "UF:\u00a0\tMG\u00a0Telefone", want: "UF: MG Telefone"},
		{name: "page break", in: "página 1\fpágina 2", want: "página 1 página 2"},
		{name: "combining accent composed", in: "Munici\u0301pio", want: "Munic\u00edpio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeInvariants(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"\n\n\n",
		"PROTEGE PROTECAO E TRANSPORTE \nDE VALORES LTDA CPF/CNPJ: 43.035.146/0061-16",
		"  leading and trailing  ",
		"x\r\r\ry",
		"tab\t\t\tseparated  values",
		" \u0301 combining mark after space",
		"Alíquota:\n\n 5%  (=)Valor do ISS:   R$ 146,08\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "idempotent for %q", in)
		assert.NotContains(t, once, "\n")
		assert.NotContains(t, once, "\r")
		assert.NotContains(t, once, "  ")
		assert.Equal(t, strings.TrimSpace(once), once)
	}
}
