// Package document implements the codec for the opaque `documento` field that
// every clinic record carries. The field holds JSON that was re-serialized one
// or two times by earlier versions of the system, in two layouts:
//
//   - Shape A (nested): the outer object carries the record's natural-key
//     fields plus a "datosJson" string whose parsed value is the inner payload.
//   - Shape B (flat, legacy): instead of "datosJson" the outer object carries
//     one "<seccion>Json" string per logical section. Read-only; the codec
//     always writes Shape A.
//
// Decoding is tolerant by design: malformed JSON at any level degrades to an
// empty value for that level and is reported through Document.Failures, never
// as an error. Callers that render partial rows depend on this.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which entity a document belongs to, so the codec knows its
// natural-key fields and section names.
type Kind string

const (
	KindPatient     Kind = "paciente"
	KindEmployee    Kind = "empleado"
	KindProcedure   Kind = "procedimiento"
	KindAppointment Kind = "cita"
	KindInvoice     Kind = "factura"
)

// Shape tags how the raw outer string decoded.
type Shape int

const (
	// ShapeUnparseable means the outer string was not valid JSON.
	ShapeUnparseable Shape = iota
	// ShapeNested is Shape A: a single "datosJson" inner document string.
	ShapeNested
	// ShapeFlat is Shape B: per-section "<seccion>Json" string fields.
	ShapeFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeNested:
		return "nested"
	case ShapeFlat:
		return "flat"
	default:
		return "unparseable"
	}
}

// nestedField is the conventional name of the inner document string in Shape A.
const nestedField = "datosJson"

// sectionSuffix is appended to a section name to form its Shape B field name,
// e.g. informacionPersonal -> informacionPersonalJson.
const sectionSuffix = "Json"

type kindSpec struct {
	keys     []string
	sections []string
}

var kindSpecs = map[Kind]kindSpec{
	KindPatient: {
		keys:     []string{"numeroDocumento"},
		sections: []string{"informacionPersonal", "informacionContacto"},
	},
	KindEmployee: {
		keys:     []string{"numeroDocumento"},
		sections: []string{"informacionPersonal", "informacionContacto", "informacionLaboral"},
	},
	KindProcedure: {
		keys: []string{"codigoCups"},
	},
	KindAppointment: {},
	KindInvoice: {
		keys: []string{"numeroFactura"},
	},
}

// Failure records one contained decode problem. Field is the outer field that
// failed ("" for the outer document itself).
type Failure struct {
	Field string
	Err   string
}

// Document is the normalized in-memory form of a record's document field.
// Keys holds the outer natural-key fields; Body holds the inner payload with
// every declared section of Kind guaranteed present as an object. Shape and
// Failures are diagnostics and are not part of the document's identity: two
// documents are equivalent when their Keys and Body match.
type Document struct {
	Kind     Kind
	Shape    Shape
	Keys     map[string]string
	Body     map[string]any
	Failures []Failure
}

// New returns an empty normalized document of the given kind, with declared
// sections present as empty objects.
func New(kind Kind) Document {
	d := Document{
		Kind: kind,
		Keys: map[string]string{},
		Body: map[string]any{},
	}
	for _, s := range kindSpecs[kind].sections {
		d.Body[s] = map[string]any{}
	}
	return d
}

// Normalize decodes the raw outer document string into the normalized form.
// It never fails: unparseable input yields an empty document with the failure
// recorded, and a corrupt inner document or section degrades independently so
// the outer natural keys stay usable.
func Normalize(raw string, kind Kind) Document {
	doc := New(kind)
	spec := kindSpecs[kind]

	var outer map[string]any
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		doc.addFailure("", err)
		return doc
	}

	for _, k := range spec.keys {
		if v, ok := scalarString(outer[k]); ok {
			doc.Keys[k] = v
		}
	}

	if inner, ok := outer[nestedField].(string); ok {
		doc.Shape = ShapeNested
		var body map[string]any
		if err := json.Unmarshal([]byte(inner), &body); err != nil {
			doc.addFailure(nestedField, err)
		} else {
			doc.Body = body
		}
	} else {
		doc.Shape = ShapeFlat
		for _, s := range spec.sections {
			field := s + sectionSuffix
			raw, ok := outer[field].(string)
			if !ok {
				continue
			}
			var section map[string]any
			if err := json.Unmarshal([]byte(raw), &section); err != nil {
				doc.addFailure(field, err)
				continue
			}
			doc.Body[s] = section
		}
	}

	doc.ensureSections()
	return doc
}

// Encode serializes a normalized document back to the outer wire string. The
// output is always Shape A regardless of the shape the document was read from;
// Shape B exists only as legacy input.
func Encode(doc Document) (string, error) {
	inner, err := json.Marshal(doc.Body)
	if err != nil {
		return "", fmt.Errorf("marshal inner document: %w", err)
	}

	outer := make(map[string]any, len(doc.Keys)+1)
	for k, v := range doc.Keys {
		outer[k] = v
	}
	outer[nestedField] = string(inner)

	b, err := json.Marshal(outer)
	if err != nil {
		return "", fmt.Errorf("marshal outer document: %w", err)
	}
	return string(b), nil
}

// Section returns the named section of the body, or an empty object when it is
// missing or not an object. The returned map is the live section for declared
// sections, so callers may populate it before Encode.
func (d Document) Section(name string) map[string]any {
	if m, ok := d.Body[name].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Key returns the named outer natural-key field, or "".
func (d Document) Key(name string) string {
	return d.Keys[name]
}

// FailureFields lists the fields that failed to decode, sorted, for logging.
func (d Document) FailureFields() []string {
	fields := make([]string, 0, len(d.Failures))
	for _, f := range d.Failures {
		if f.Field == "" {
			fields = append(fields, "documento")
			continue
		}
		fields = append(fields, f.Field)
	}
	sort.Strings(fields)
	return fields
}

func (d *Document) addFailure(field string, err error) {
	d.Failures = append(d.Failures, Failure{Field: field, Err: err.Error()})
}

// ensureSections guarantees every declared section is an object. A section
// that decoded to a non-object is replaced with an empty object and recorded
// as a failure; a missing section defaults silently.
func (d *Document) ensureSections() {
	for _, s := range kindSpecs[d.Kind].sections {
		v, present := d.Body[s]
		if _, ok := v.(map[string]any); ok {
			continue
		}
		if present {
			d.addFailure(s, fmt.Errorf("section is not an object"))
		}
		d.Body[s] = map[string]any{}
	}
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Str reads a string field from a body or section map, tolerating absence.
func Str(m map[string]any, field string) string {
	s, _ := m[field].(string)
	return s
}

// Num reads a numeric field from a body or section map. The second result
// reports whether the field was present as a number.
func Num(m map[string]any, field string) (float64, bool) {
	n, ok := m[field].(float64)
	return n, ok
}
