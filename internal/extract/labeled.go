package extract

import (
	"regexp"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// labelStop ends a free-text value at the next "Label:" of the labeled layout,
// or at the end of the text.
const labelStop = `(?:\s+(?:CNPJ|CPF|Raz[aã]o Social|Endere[cç]o|Munic[ií]pio|UF|N[uú]mero do Documento|S[ée]rie|Data|Situa[cç][aã]o|Acumulador|CFOP|Valor [^:]{1,30}|Base de C[aá]lculo|Al[ií]quota)\s*:|\s*$)`

// Labeled handles accounting-system exports where every value follows its own
// "Label:" ("Razão Social: ACME LTDA Endereço: RUA ...").
type Labeled struct {
	rules  []Rule
	detect *regexp.Regexp
}

func NewLabeled() *Labeled {
	text := func(field constants.Field, label string) Rule {
		return Pattern(field, label+`\s*:\s*(.+?)`+labelStop)
	}
	value := func(field constants.Field, label string) Rule {
		return Pattern(field, `\b`+label+`\s*:\s*(?:R\$\s*)?`+moneyExpr)
	}

	return &Labeled{
		detect: compile(`Raz[aã]o Social\s*:`),
		rules: []Rule{
			Pattern(constants.FieldTaxID, `\b(?:CPF/)?CNPJ\s*:\s*(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}|\d{3}\.?\d{3}\.?\d{3}-?\d{2})`),
			text(constants.FieldCompanyName, `Raz[aã]o Social`),
			Pattern(constants.FieldState, `\bUF\s*:\s*(?-i:([A-Z]{2}))\b`),
			text(constants.FieldMunicipality, `\bMunic[ií]pio`),
			text(constants.FieldAddress, `\bEndere[cç]o`),
			Pattern(constants.FieldDocumentNumber, `N[uú]mero (?:do )?Documento\s*:\s*(\d+)`),
			Pattern(constants.FieldSeries, seriesExpr),
			Pattern(constants.FieldIssueDate, `\bData(?: de Emiss[aã]o)?\s*:\s*`+dateExpr),
			Pattern(constants.FieldSituation, `Situa[cç][aã]o\s*:\s*(\d)\b`),
			Pattern(constants.FieldAccumulator, `Acumulador\s*:\s*(\d+)`),
			Pattern(constants.FieldCFOP, `CFOP\s*:\s*(\d\.?\d{3})\b`),
			value(constants.FieldServiceValue, `Valor Servi[cç]os`),
			value(constants.FieldDiscountValue, `Valor Descontos`),
			value(constants.FieldNetValue, `Valor Cont[aá]bil`),
			value(constants.FieldTaxBase, `Base de C[aá]lculo`),
			Pattern(constants.FieldISSRate, `Al[ií]quota(?: ISS)?\s*:\s*`+rateExpr),
			value(constants.FieldISSNormal, `Valor ISS`),
			value(constants.FieldISSWithheld, `Valor ISS Retido`),
			value(constants.FieldIRRF, `Valor IRRF`),
			value(constants.FieldPIS, `Valor PIS`),
			value(constants.FieldCOFINS, `Valor COFINS`),
			value(constants.FieldCSLL, `Valor CSLL`),
			value(constants.FieldCRF, `Valor CRF`),
			value(constants.FieldINSS, `Valor INSS`),
		},
	}
}

func (l *Labeled) Name() string { return constants.DialectLabeled }

func (l *Labeled) Detect(text string) bool { return l.detect.MatchString(text) }

func (l *Labeled) Rules() []Rule { return l.rules }
