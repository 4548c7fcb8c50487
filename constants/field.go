package constants

// Field is the stable key of one extracted NFS-e value.
type Field string

const (
	FieldTaxID          Field = "cpf_cnpj"
	FieldCompanyName    Field = "razao_social"
	FieldState          Field = "uf"
	FieldMunicipality   Field = "municipio"
	FieldAddress        Field = "endereco"
	FieldDocumentNumber Field = "numero_documento"
	FieldSeries         Field = "serie"
	FieldIssueDate      Field = "data"
	FieldSituation      Field = "situacao"
	FieldAccumulator    Field = "acumulador"
	FieldCFOP           Field = "cfop"
	FieldServiceValue   Field = "valor_servicos"
	FieldDiscountValue  Field = "valor_descontos"
	FieldNetValue       Field = "valor_contabil"
	FieldTaxBase        Field = "base_calculo"
	FieldISSRate        Field = "aliquota_iss"
	FieldISSNormal      Field = "valor_iss_normal"
	FieldISSWithheld    Field = "valor_iss_retido"
	FieldIRRF           Field = "valor_irrf"
	FieldPIS            Field = "valor_pis"
	FieldCOFINS         Field = "valor_cofins"
	FieldCSLL           Field = "valor_csll"
	FieldCRF            Field = "valor_crf"
	FieldINSS           Field = "valor_inss"
)

// NotFound is written for every field whose rule did not match.
const NotFound = "Não Encontrado"

// Column describes one spreadsheet column. Money columns hold pt-BR amounts
// ("2.921,54": dot for thousands, comma for decimals) and are written verbatim
// unless the sink runs with the decimal money format.
type Column struct {
	Field Field
	Title string
	Money bool
}

// Columns is the fixed template layout, column A first.
var Columns = []Column{
	{Field: FieldTaxID, Title: "CPF/CNPJ"},
	{Field: FieldCompanyName, Title: "Razão Social"},
	{Field: FieldState, Title: "UF"},
	{Field: FieldMunicipality, Title: "Município"},
	{Field: FieldAddress, Title: "Endereço"},
	{Field: FieldDocumentNumber, Title: "Número Documento"},
	{Field: FieldSeries, Title: "Série"},
	{Field: FieldIssueDate, Title: "Data"},
	{Field: FieldSituation, Title: "Situação"},
	{Field: FieldAccumulator, Title: "Acumulador"},
	{Field: FieldCFOP, Title: "CFOP"},
	{Field: FieldServiceValue, Title: "Valor Serviços", Money: true},
	{Field: FieldDiscountValue, Title: "Valor Descontos", Money: true},
	{Field: FieldNetValue, Title: "Valor Contábil", Money: true},
	{Field: FieldTaxBase, Title: "Base de Cálculo", Money: true},
	{Field: FieldISSRate, Title: "Alíquota ISS"},
	{Field: FieldISSNormal, Title: "Valor ISS Normal", Money: true},
	{Field: FieldISSWithheld, Title: "Valor ISS Retido", Money: true},
	{Field: FieldIRRF, Title: "Valor IRRF", Money: true},
	{Field: FieldPIS, Title: "Valor PIS", Money: true},
	{Field: FieldCOFINS, Title: "Valor COFINS", Money: true},
	{Field: FieldCSLL, Title: "Valor CSLL", Money: true},
	{Field: FieldCRF, Title: "Valor CRF", Money: true},
	{Field: FieldINSS, Title: "Valor INSS", Money: true},
}

// Optional column after the field columns holding the source file name.
const (
	SourceColumnTitle = "Arquivo"
	SourceColumnKey   = "arquivo"
)

// AllFields returns the declared field keys in column order.
func AllFields() []Field {
	out := make([]Field, len(Columns))
	for i, c := range Columns {
		out[i] = c.Field
	}
	return out
}

// IsField reports whether f is one of the declared keys.
func IsField(f Field) bool {
	for _, c := range Columns {
		if c.Field == f {
			return true
		}
	}
	return false
}

// IsMoney reports whether f holds a monetary amount.
func IsMoney(f Field) bool {
	for _, c := range Columns {
		if c.Field == f {
			return c.Money
		}
	}
	return false
}
