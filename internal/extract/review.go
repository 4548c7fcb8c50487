package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

// fieldShapes are the accepted forms of matched values. A matched value that
// does not fit usually means a rule anchored on the wrong label.
var fieldShapes = map[constants.Field]string{
	constants.FieldTaxID:          `^(\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}|\d{3}\.?\d{3}\.?\d{3}-?\d{2})$`,
	constants.FieldState:          `^[A-Z]{2}$`,
	constants.FieldIssueDate:      `^\d{2}/\d{2}/\d{4}$`,
	constants.FieldSituation:      `^\d$`,
	constants.FieldCFOP:           `^\d\.?\d{3}$`,
	constants.FieldISSRate:        `^\d+([.,]\d+)?\s*%$`,
	constants.FieldDocumentNumber: `^\d+(/\d+)*$`,
}

const moneyShape = `^(\d{1,3}(\.\d{3})*,\d{2}|\d+([.,]\d{1,2})?)$`

// BuildRecordJSONSchema returns a JSON-Schema for a FieldRecord: every field
// required, no extra keys, each value either the sentinel or its expected shape.
func BuildRecordJSONSchema() map[string]any {
	props := make(map[string]any, len(constants.Columns))
	required := make([]string, 0, len(constants.Columns))
	for _, c := range constants.Columns {
		shape := map[string]any{"type": "string", "minLength": 1}
		if p, ok := fieldShapes[c.Field]; ok {
			shape["pattern"] = p
		} else if c.Money {
			shape["pattern"] = moneyShape
		}
		props[string(c.Field)] = map[string]any{
			"anyOf": []any{
				map[string]any{"const": constants.NotFound},
				shape,
			},
		}
		required = append(required, string(c.Field))
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// Reviewer flags records whose values do not look like what their field holds.
type Reviewer struct {
	schema *jsonschema.Schema
}

func NewReviewer() (*Reviewer, error) {
	b, err := json.Marshal(BuildRecordJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Reviewer{schema: schema}, nil
}

// Review returns nil when every value is the sentinel or has its field's shape.
// Shape violations wrap common.ErrValidation.
func (r *Reviewer) Review(rec entity.FieldRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := r.schema.Validate(v); err != nil {
		return fmt.Errorf("record needs review: %w: %w", common.ErrValidation, err)
	}
	return nil
}
