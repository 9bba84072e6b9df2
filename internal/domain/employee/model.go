package employee

import (
	"strings"

	"github.com/clinadmin/clinadmin/internal/document"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Employee is the typed view over a stored employee document.
type Employee struct {
	ID              string `json:"id"`
	Active          bool   `json:"activo"`
	NumeroDocumento string `json:"numeroDocumento"`
	TipoDocumento   string `json:"tipoDocumento"`
	Nombres         string `json:"nombres"`
	Apellidos       string `json:"apellidos"`
	Telefono        string `json:"telefono"`
	Email           string `json:"email"`
	Cargo           string `json:"cargo"`
	Especialidad    string `json:"especialidad"`
	RegistroMedico  string `json:"registroMedico"`

	ParseFailures []string `json:"-"`
}

// DisplayName returns the employee's full name.
func (e *Employee) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(e.Nombres) + " " + strings.TrimSpace(e.Apellidos))
}

// professional qualifiers that appointment records prepend to physician names
var nameQualifiers = map[string]bool{
	"dr": true, "dr.": true, "dra": true, "dra.": true,
}

// StripQualifiers removes leading professional qualifiers from a physician
// label so that "Dra. Ana Perez" and "Ana Perez" resolve to the same person.
func StripQualifiers(label string) string {
	fields := strings.Fields(label)
	for len(fields) > 0 && nameQualifiers[strings.ToLower(fields[0])] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// AliasKeys returns every string under which this employee can be looked up:
// record id, document number, full name, and the full name with professional
// qualifiers stripped. Empty aliases are omitted by the lookup cache.
func (e *Employee) AliasKeys() []string {
	name := e.DisplayName()
	return []string{e.ID, e.NumeroDocumento, name, StripQualifiers(name)}
}

// FromRecord decodes a store record into an Employee. Decoding is tolerant:
// unreadable fields come back zero-valued and are listed in ParseFailures.
func FromRecord(rec *docstore.Record) *Employee {
	doc := document.Normalize(rec.Document, document.KindEmployee)

	personal := doc.Section("informacionPersonal")
	contacto := doc.Section("informacionContacto")
	laboral := doc.Section("informacionLaboral")

	return &Employee{
		ID:              rec.ID,
		Active:          rec.Active,
		NumeroDocumento: doc.Key("numeroDocumento"),
		TipoDocumento:   document.Str(personal, "tipoDocumento"),
		Nombres:         document.Str(personal, "nombres"),
		Apellidos:       document.Str(personal, "apellidos"),
		Telefono:        document.Str(contacto, "telefono"),
		Email:           document.Str(contacto, "email"),
		Cargo:           document.Str(laboral, "cargo"),
		Especialidad:    document.Str(laboral, "especialidad"),
		RegistroMedico:  document.Str(laboral, "registroMedico"),
		ParseFailures:   doc.FailureFields(),
	}
}

// Document encodes the employee back into the canonical nested document form.
func (e *Employee) Document() (string, error) {
	doc := document.New(document.KindEmployee)
	doc.Keys["numeroDocumento"] = e.NumeroDocumento
	doc.Body["informacionPersonal"] = map[string]any{
		"tipoDocumento": e.TipoDocumento,
		"nombres":       e.Nombres,
		"apellidos":     e.Apellidos,
	}
	doc.Body["informacionContacto"] = map[string]any{
		"telefono": e.Telefono,
		"email":    e.Email,
	}
	doc.Body["informacionLaboral"] = map[string]any{
		"cargo":          e.Cargo,
		"especialidad":   e.Especialidad,
		"registroMedico": e.RegistroMedico,
	}
	return document.Encode(doc)
}
