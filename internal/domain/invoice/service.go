package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/domain/appointment"
	"github.com/clinadmin/clinadmin/internal/domain/employee"
	"github.com/clinadmin/clinadmin/internal/domain/patient"
	"github.com/clinadmin/clinadmin/internal/domain/procedure"
	"github.com/clinadmin/clinadmin/internal/lookup"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// FallbackPatientName labels line items whose patient record is missing.
const FallbackPatientName = "Paciente no identificado"

// Engine turns a selection of attended appointments into a priced invoice
// snapshot and manages the draft, issued and paid states. Lookup caches are
// scoped to one aggregation run; nothing is shared across runs.
type Engine struct {
	invoices     Repository
	appointments appointment.Repository
	patients     patient.Repository
	employees    employee.Repository
	procedures   procedure.Repository
	seq          *Sequence
	logger       zerolog.Logger
	now          func() time.Time
}

func NewEngine(
	invoices Repository,
	appointments appointment.Repository,
	patients patient.Repository,
	employees employee.Repository,
	procedures procedure.Repository,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		invoices:     invoices,
		appointments: appointments,
		patients:     patients,
		employees:    employees,
		procedures:   procedures,
		seq:          NewSequence(),
		logger:       logger,
		now:          time.Now,
	}
}

// run holds the per-aggregation lookup state.
type run struct {
	engine    *Engine
	patients  *lookup.Cache[*patient.Patient]
	employees *lookup.Cache[*employee.Employee]
	resolver  *procedure.Resolver
}

func (e *Engine) newRun() *run {
	return &run{
		engine:    e,
		patients:  lookup.New[*patient.Patient](),
		employees: lookup.New[*employee.Employee](),
		resolver:  procedure.NewResolver(e.procedures, e.logger),
	}
}

func (r *run) patient(ctx context.Context, id string) (*patient.Patient, bool) {
	return r.patients.GetOrFetch(ctx, "paciente:"+id, id, func(ctx context.Context) error {
		p, err := r.engine.patients.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, docstore.ErrNotFound) {
				r.engine.logger.Error().Err(err).Str("pacienteId", id).Msg("fetch patient")
			}
			return err
		}
		r.patients.RegisterAliases(p, p.ID, p.NumeroDocumento, p.DisplayName())
		return nil
	})
}

func (r *run) physician(ctx context.Context, label string) (*employee.Employee, bool) {
	return r.employees.GetOrFetch(ctx, "empleados", label, func(ctx context.Context) error {
		all, err := r.engine.employees.ListAll(ctx)
		if err != nil {
			r.engine.logger.Error().Err(err).Msg("fetch employees")
			return err
		}
		for _, emp := range all {
			r.employees.RegisterAliases(emp, emp.AliasKeys()...)
		}
		return nil
	})
}

func (e *Engine) buildItem(ctx context.Context, r *run, appt *appointment.Appointment) LineItem {
	item := LineItem{
		CitaID:        appt.ID,
		CodigoCups:    appt.CodigoCups,
		FechaAtencion: appt.FechaAtencion,
	}

	if p, ok := r.patient(ctx, appt.PacienteID); ok {
		item.PacienteNombre = p.DisplayName()
		item.PacienteDocumento = p.NumeroDocumento
	} else {
		item.PacienteNombre = FallbackPatientName
	}

	// The raw label is kept when no employee matches; appointments reference
	// physicians by whatever string the scheduler typed.
	item.MedicoNombre = appt.Medico
	if appt.Medico != "" {
		emp, ok := r.physician(ctx, appt.Medico)
		if !ok {
			if stripped := employee.StripQualifiers(appt.Medico); stripped != appt.Medico {
				emp, ok = r.physician(ctx, stripped)
			}
		}
		if ok {
			item.MedicoNombre = emp.DisplayName()
		}
	}

	v := r.resolver.Resolve(ctx, appt.CodigoCups)
	item.Procedimiento = v.Nombre
	item.Valor = v.Valor
	item.Unpriced = v.Unpriced

	return item
}

// BuildDraft prices the selected appointments and returns an ephemeral draft
// invoice. The draft is a frozen snapshot: line items keep the order of the
// selection and copy every value they need. Drafts are never persisted.
func (e *Engine) BuildDraft(ctx context.Context, selection []string) (*Invoice, error) {
	if len(selection) == 0 {
		return nil, ErrEmptySelection
	}

	r := e.newRun()
	items := make([]LineItem, 0, len(selection))
	for _, id := range selection {
		appt, err := e.appointments.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load appointment %s: %w", id, err)
		}
		if !appt.Billable() {
			return nil, fmt.Errorf("appointment %s is %s: %w", id, appt.Estado, ErrNotBillable)
		}
		items = append(items, e.buildItem(ctx, r, appt))
	}

	draft := &Invoice{
		NumeroFactura: DraftNumber,
		Estado:        StatusDraft,
		Items:         items,
	}
	draft.Total = draft.SumItems()
	return draft, nil
}

// Issue persists the draft as an ISSUED invoice under a fresh invoice number.
// The total is recomputed from the line items before writing. On persistence
// failure nothing is written and the error is reported unchanged; the
// consumed invoice number is not reused.
func (e *Engine) Issue(ctx context.Context, draft *Invoice, selection []string) (*Invoice, error) {
	if len(selection) == 0 || len(draft.Items) == 0 {
		return nil, ErrEmptySelection
	}

	issued := &Invoice{
		NumeroFactura: e.seq.Next(),
		FechaEmision:  e.now().UTC().Format(time.RFC3339),
		Estado:        StatusIssued,
		Items:         append([]LineItem(nil), draft.Items...),
	}
	issued.Total = issued.SumItems()

	if err := e.invoices.Create(ctx, issued); err != nil {
		return nil, fmt.Errorf("issue invoice: %w", err)
	}

	e.logger.Info().
		Str("numeroFactura", issued.NumeroFactura).
		Int("items", len(issued.Items)).
		Float64("total", issued.Total).
		Msg("invoice issued")
	return issued, nil
}

// MarkPaid transitions an ISSUED invoice to PAID. PAID is terminal.
func (e *Engine) MarkPaid(ctx context.Context, id string) (*Invoice, error) {
	inv, err := e.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Estado != StatusIssued {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotIssued, inv.NumeroFactura, inv.Estado)
	}

	inv.Estado = StatusPaid
	inv.Total = inv.SumItems()
	if err := e.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("mark invoice paid: %w", err)
	}
	return inv, nil
}

// Get returns a stored invoice.
func (e *Engine) Get(ctx context.Context, id string) (*Invoice, error) {
	return e.invoices.GetByID(ctx, id)
}

// List returns stored invoices.
func (e *Engine) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	return e.invoices.List(ctx, limit, offset)
}
