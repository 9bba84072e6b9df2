package appointment

import (
	"github.com/clinadmin/clinadmin/internal/document"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Status is the appointment lifecycle state. Only attended appointments
// are billing-eligible.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusAttended  Status = "ATTENDED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusAttended, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is the typed view over a stored appointment document. Medico
// is a free-text physician label; appointment records historically reference
// physicians by display name rather than by id.
type Appointment struct {
	ID            string `json:"id"`
	Active        bool   `json:"activo"`
	PacienteID    string `json:"pacienteId"`
	Medico        string `json:"medico"`
	CodigoCups    string `json:"codigoCups"`
	Estado        Status `json:"estado"`
	FechaAtencion string `json:"fechaAtencion"`
	Motivo        string `json:"motivo"`

	ParseFailures []string `json:"-"`
}

// Billable reports whether the appointment can appear on an invoice.
func (a *Appointment) Billable() bool {
	return a.Estado == StatusAttended
}

// FromRecord decodes a store record into an Appointment.
func FromRecord(rec *docstore.Record) *Appointment {
	doc := document.Normalize(rec.Document, document.KindAppointment)

	return &Appointment{
		ID:            rec.ID,
		Active:        rec.Active,
		PacienteID:    document.Str(doc.Body, "pacienteId"),
		Medico:        document.Str(doc.Body, "medico"),
		CodigoCups:    document.Str(doc.Body, "codigoCups"),
		Estado:        Status(document.Str(doc.Body, "estado")),
		FechaAtencion: document.Str(doc.Body, "fechaAtencion"),
		Motivo:        document.Str(doc.Body, "motivo"),
		ParseFailures: doc.FailureFields(),
	}
}

// Document encodes the appointment back into the canonical nested form.
func (a *Appointment) Document() (string, error) {
	doc := document.New(document.KindAppointment)
	doc.Body["pacienteId"] = a.PacienteID
	doc.Body["medico"] = a.Medico
	doc.Body["codigoCups"] = a.CodigoCups
	doc.Body["estado"] = string(a.Estado)
	doc.Body["fechaAtencion"] = a.FechaAtencion
	doc.Body["motivo"] = a.Motivo
	return document.Encode(doc)
}
