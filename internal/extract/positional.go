package extract

import (
	"regexp"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// Positional handles municipal portal NFS-e (the Belo Horizonte ISS Digital
// layout and its clones). The provider's name and address are printed without
// labels, so they are taken from between the markers that surround them.
type Positional struct {
	rules  []Rule
	detect *regexp.Regexp
}

func NewPositional() *Positional {
	// provider block: "... Código de Verificação: d18f199f <NAME> CPF/CNPJ: <id>
	// Inscrição Municipal: <im> <ADDRESS> - Cep: 31230-000 <CITY> <UF> Telefone: ..."
	const (
		verification = `C[oó]digo de Verifica[cç][aã]o\s*:\s*\S+`
		municipalReg = `Inscri[cç][aã]o Municipal\s*:\s*(?:\d[\w/.-]*|N[aã]o Informad[oa])`
		cepBlock     = `-\s*CEP\s*:\s*[\d.-]+\s+`
		ufThenPhone  = `\s(?-i:([A-Z]{2}))\s+Telefone`
	)

	return &Positional{
		detect: compile(`C[oó]digo de Verifica[cç][aã]o|Cod/Munic[ií]pio da incid[eê]ncia`),
		rules: []Rule{
			Pattern(constants.FieldTaxID, `CPF/CNPJ[:\s]*(\d[\d./-]*\d)`),
			Between(constants.FieldCompanyName, verification, `\s*CPF/CNPJ`),
			Pattern(constants.FieldState, cepBlock+`.+?`+ufThenPhone),
			FirstOf(constants.FieldMunicipality,
				Pattern(constants.FieldMunicipality, `Munic[ií]pio da incid[eê]ncia do ISSQN\s*:\s*\d+\s*/\s*(.+?)(?:\s+(?:Natureza|Valor|Regime|Exigibilidade)\b|$)`),
				Pattern(constants.FieldMunicipality, cepBlock+`(.+?)\s(?-i:[A-Z]{2})\s+Telefone`),
			),
			Between(constants.FieldAddress, municipalReg, `\s+-\s*CEP\s*:`),
			FirstOf(constants.FieldDocumentNumber,
				Pattern(constants.FieldDocumentNumber, `N\s?[º°]\s*:?\s*(\d+(?:/\d+)*)`),
				Pattern(constants.FieldDocumentNumber, `N[uú]mero d[ao] (?:NFS-e|Nota)\s*:?\s*(\d+)`),
			),
			Pattern(constants.FieldSeries, seriesExpr),
			FirstOf(constants.FieldIssueDate,
				Pattern(constants.FieldIssueDate, `Emitida em\s*:?\s*`+dateExpr),
				Pattern(constants.FieldIssueDate, `Data (?:de )?Emiss[aã]o\s*:?\s*`+dateExpr),
			),
			Pattern(constants.FieldSituation, `Situa[cç][aã]o\s*:\s*(\d)\b`),
			Pattern(constants.FieldAccumulator, `Acumulador\s*:\s*(\d+)`),
			Pattern(constants.FieldCFOP, `CFOP\s*:\s*(\d\.?\d{3})\b`),
			Money(constants.FieldServiceValue, `Valor\s*dos\s*servi[cç]os`),
			Money(constants.FieldDiscountValue, `\bDescontos`),
			Money(constants.FieldNetValue, `Valor\s*L[ií]quido`),
			Money(constants.FieldTaxBase, `Base\s*de\s*C[aá]lculo`),
			Pattern(constants.FieldISSRate, `Al[ií]quota\s*:?\s*`+rateExpr),
			Money(constants.FieldISSNormal, `Valor\s*do\s*ISS`),
			Money(constants.FieldISSWithheld, `ISS\s*Retido\s*na\s*Fonte`),
			withheld(constants.FieldIRRF, `\bIR(?:RF)?`),
			withheld(constants.FieldPIS, `\bPIS(?:/PASEP)?`),
			withheld(constants.FieldCOFINS, `\bCOFINS`),
			withheld(constants.FieldCSLL, `\bCSLL`),
			withheld(constants.FieldCRF, `\bCRF`),
			withheld(constants.FieldINSS, `\bINSS`),
		},
	}
}

// withheld matches the "Retenções Federais" list, where short tax names are
// only trusted when followed by a colon.
func withheld(field constants.Field, name string) Rule {
	return Pattern(field, name+`\s*:\s*(?:R\$\s*)?`+moneyExpr)
}

func (p *Positional) Name() string { return constants.DialectPositional }

func (p *Positional) Detect(text string) bool { return p.detect.MatchString(text) }

func (p *Positional) Rules() []Rule { return p.rules }
