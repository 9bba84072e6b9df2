package procedure

import (
	"github.com/clinadmin/clinadmin/internal/document"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Procedure is the typed view over a stored procedure document. Procedures
// are keyed by their CUPS code and carry no lifecycle flag.
type Procedure struct {
	ID         string  `json:"id"`
	CodigoCups string  `json:"codigoCups"`
	Nombre     string  `json:"nombre"`
	Valor      float64 `json:"valor"`
	// ValorDefinido distinguishes a stored zero price from a missing one.
	ValorDefinido bool `json:"valorDefinido"`

	ParseFailures []string `json:"-"`
}

// FromRecord decodes a store record into a Procedure.
func FromRecord(rec *docstore.Record) *Procedure {
	doc := document.Normalize(rec.Document, document.KindProcedure)

	valor, defined := document.Num(doc.Body, "valor")

	return &Procedure{
		ID:            rec.ID,
		CodigoCups:    doc.Key("codigoCups"),
		Nombre:        document.Str(doc.Body, "nombre"),
		Valor:         valor,
		ValorDefinido: defined,
		ParseFailures: doc.FailureFields(),
	}
}

// Document encodes the procedure back into the canonical nested document form.
func (p *Procedure) Document() (string, error) {
	doc := document.New(document.KindProcedure)
	doc.Keys["codigoCups"] = p.CodigoCups
	doc.Body["nombre"] = p.Nombre
	if p.ValorDefinido {
		doc.Body["valor"] = p.Valor
	}
	return document.Encode(doc)
}
