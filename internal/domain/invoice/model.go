package invoice

import (
	"github.com/clinadmin/clinadmin/internal/document"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Status is the invoice lifecycle state. PAID is terminal.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusIssued Status = "ISSUED"
	StatusPaid   Status = "PAID"
)

// DraftNumber is the placeholder shown on drafts. Real numbers are assigned
// at issuance and never reused.
const DraftNumber = "BORRADOR"

// LineItem is a frozen copy of one billed appointment. Values are captured
// at build time; later edits to the referenced records never reach an
// existing line item.
type LineItem struct {
	CitaID            string  `json:"citaId"`
	PacienteNombre    string  `json:"pacienteNombre"`
	PacienteDocumento string  `json:"pacienteDocumento"`
	MedicoNombre      string  `json:"medicoNombre"`
	Procedimiento     string  `json:"procedimiento"`
	CodigoCups        string  `json:"codigoCups"`
	FechaAtencion     string  `json:"fechaAtencion"`
	Valor             float64 `json:"valor"`
	// Unpriced marks items whose code had no usable price. It is reported to
	// callers but never persisted; the stored layout carries only the value.
	Unpriced bool `json:"sinTarifa,omitempty"`
}

// Invoice is an ordered, priced snapshot of billed appointments. Item order
// matches the selection order of the aggregation run that built it.
type Invoice struct {
	ID            string     `json:"id"`
	NumeroFactura string     `json:"numeroFactura"`
	FechaEmision  string     `json:"fechaEmision"`
	Estado        Status     `json:"estado"`
	Total         float64    `json:"total"`
	Items         []LineItem `json:"citas"`

	ParseFailures []string `json:"-"`
}

// SumItems recomputes the total from the line items. The stored total is
// never trusted on its own.
func (inv *Invoice) SumItems() float64 {
	var total float64
	for _, item := range inv.Items {
		total += item.Valor
	}
	return total
}

// FromRecord decodes a store record into an Invoice.
func FromRecord(rec *docstore.Record) *Invoice {
	doc := document.Normalize(rec.Document, document.KindInvoice)

	inv := &Invoice{
		ID:            rec.ID,
		NumeroFactura: doc.Key("numeroFactura"),
		FechaEmision:  document.Str(doc.Body, "fechaEmision"),
		Estado:        Status(document.Str(doc.Body, "estado")),
		ParseFailures: doc.FailureFields(),
	}
	if inv.NumeroFactura == "" {
		inv.NumeroFactura = document.Str(doc.Body, "numeroFactura")
	}

	citas, _ := doc.Body["citas"].([]any)
	for _, raw := range citas {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		item := LineItem{
			CitaID:        document.Str(entry, "id"),
			Procedimiento: document.Str(entry, "procedimiento"),
			CodigoCups:    document.Str(entry, "codigoCups"),
			FechaAtencion: document.Str(entry, "fechaAtencion"),
		}
		item.Valor, _ = document.Num(entry, "valor")
		if paciente, ok := entry["paciente"].(map[string]any); ok {
			item.PacienteNombre = document.Str(paciente, "nombre")
			item.PacienteDocumento = document.Str(paciente, "documento")
		}
		if medico, ok := entry["medico"].(map[string]any); ok {
			item.MedicoNombre = document.Str(medico, "nombre")
		}
		inv.Items = append(inv.Items, item)
	}

	inv.Total = inv.SumItems()
	return inv
}

// Document encodes the invoice into the persisted layout, stored inside the
// canonical nested-document form.
func (inv *Invoice) Document() (string, error) {
	citas := make([]any, 0, len(inv.Items))
	for _, item := range inv.Items {
		citas = append(citas, map[string]any{
			"id": item.CitaID,
			"paciente": map[string]any{
				"nombre":    item.PacienteNombre,
				"documento": item.PacienteDocumento,
			},
			"medico":        map[string]any{"nombre": item.MedicoNombre},
			"procedimiento": item.Procedimiento,
			"codigoCups":    item.CodigoCups,
			"fechaAtencion": item.FechaAtencion,
			"valor":         item.Valor,
		})
	}

	doc := document.New(document.KindInvoice)
	doc.Keys["numeroFactura"] = inv.NumeroFactura
	doc.Body["numeroFactura"] = inv.NumeroFactura
	doc.Body["fechaEmision"] = inv.FechaEmision
	doc.Body["estado"] = string(inv.Estado)
	doc.Body["total"] = inv.SumItems()
	doc.Body["citas"] = citas
	return document.Encode(doc)
}
