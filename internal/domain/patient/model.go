package patient

import (
	"strings"

	"github.com/clinadmin/clinadmin/internal/document"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Patient is the typed view over a stored patient document. All fields live
// inside the document envelope; the store only knows id, activo and documento.
type Patient struct {
	ID              string `json:"id"`
	Active          bool   `json:"activo"`
	NumeroDocumento string `json:"numeroDocumento"`
	TipoDocumento   string `json:"tipoDocumento"`
	Nombres         string `json:"nombres"`
	Apellidos       string `json:"apellidos"`
	FechaNacimiento string `json:"fechaNacimiento"`
	Telefono        string `json:"telefono"`
	Email           string `json:"email"`
	Direccion       string `json:"direccion"`
	Ciudad          string `json:"ciudad"`

	// ParseFailures lists document fields that could not be decoded. They are
	// diagnostic only and never persisted.
	ParseFailures []string `json:"-"`
}

// DisplayName returns the patient's full name, or an empty string when both
// name parts are missing.
func (p *Patient) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(p.Nombres) + " " + strings.TrimSpace(p.Apellidos))
}

// FromRecord decodes a store record into a Patient. Decoding is tolerant:
// unreadable fields come back zero-valued and are listed in ParseFailures.
func FromRecord(rec *docstore.Record) *Patient {
	doc := document.Normalize(rec.Document, document.KindPatient)

	personal := doc.Section("informacionPersonal")
	contacto := doc.Section("informacionContacto")

	return &Patient{
		ID:              rec.ID,
		Active:          rec.Active,
		NumeroDocumento: doc.Key("numeroDocumento"),
		TipoDocumento:   document.Str(personal, "tipoDocumento"),
		Nombres:         document.Str(personal, "nombres"),
		Apellidos:       document.Str(personal, "apellidos"),
		FechaNacimiento: document.Str(personal, "fechaNacimiento"),
		Telefono:        document.Str(contacto, "telefono"),
		Email:           document.Str(contacto, "email"),
		Direccion:       document.Str(contacto, "direccion"),
		Ciudad:          document.Str(contacto, "ciudad"),
		ParseFailures:   doc.FailureFields(),
	}
}

// Document encodes the patient back into the canonical nested document form.
func (p *Patient) Document() (string, error) {
	doc := document.New(document.KindPatient)
	doc.Keys["numeroDocumento"] = p.NumeroDocumento
	doc.Body["informacionPersonal"] = map[string]any{
		"tipoDocumento":   p.TipoDocumento,
		"nombres":         p.Nombres,
		"apellidos":       p.Apellidos,
		"fechaNacimiento": p.FechaNacimiento,
	}
	doc.Body["informacionContacto"] = map[string]any{
		"telefono":  p.Telefono,
		"email":     p.Email,
		"direccion": p.Direccion,
		"ciudad":    p.Ciudad,
	}
	return document.Encode(doc)
}
