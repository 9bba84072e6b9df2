package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/domain/appointment"
	"github.com/clinadmin/clinadmin/internal/domain/employee"
	"github.com/clinadmin/clinadmin/internal/domain/patient"
	"github.com/clinadmin/clinadmin/internal/domain/procedure"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

type mockInvoiceRepo struct {
	stored     map[string]*Invoice
	creates    int
	updates    int
	failCreate bool
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{stored: make(map[string]*Invoice)}
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id string) (*Invoice, error) {
	inv, ok := m.stored[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return inv, nil
}

func (m *mockInvoiceRepo) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	var out []*Invoice
	for _, inv := range m.stored {
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *Invoice) error {
	m.creates++
	if m.failCreate {
		return fmt.Errorf("store unavailable")
	}
	inv.ID = fmt.Sprintf("fac-%d", len(m.stored)+1)
	m.stored[inv.ID] = inv
	return nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, inv *Invoice) error {
	m.updates++
	if _, ok := m.stored[inv.ID]; !ok {
		return docstore.ErrNotFound
	}
	m.stored[inv.ID] = inv
	return nil
}

type mockApptRepo struct {
	appointments map[string]*appointment.Appointment
	getCalls     int
}

func (m *mockApptRepo) GetByID(ctx context.Context, id string) (*appointment.Appointment, error) {
	m.getCalls++
	a, ok := m.appointments[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return a, nil
}

func (m *mockApptRepo) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*appointment.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockApptRepo) ListAttended(ctx context.Context) ([]*appointment.Appointment, error) {
	return nil, nil
}

func (m *mockApptRepo) Create(ctx context.Context, a *appointment.Appointment) error { return nil }
func (m *mockApptRepo) Update(ctx context.Context, a *appointment.Appointment) error { return nil }
func (m *mockApptRepo) Deactivate(ctx context.Context, id string) error              { return nil }

type mockPatientRepo struct {
	patients map[string]*patient.Patient
	getCalls int
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id string) (*patient.Patient, error) {
	m.getCalls++
	p, ok := m.patients[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) Create(ctx context.Context, p *patient.Patient) error { return nil }
func (m *mockPatientRepo) Update(ctx context.Context, p *patient.Patient) error { return nil }
func (m *mockPatientRepo) Deactivate(ctx context.Context, id string) error      { return nil }

type mockEmployeeRepo struct {
	employees    []*employee.Employee
	listAllCalls int
}

func (m *mockEmployeeRepo) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	return nil, docstore.ErrNotFound
}

func (m *mockEmployeeRepo) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*employee.Employee, int, error) {
	return nil, 0, nil
}

func (m *mockEmployeeRepo) ListAll(ctx context.Context) ([]*employee.Employee, error) {
	m.listAllCalls++
	return m.employees, nil
}

func (m *mockEmployeeRepo) Create(ctx context.Context, e *employee.Employee) error { return nil }
func (m *mockEmployeeRepo) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (m *mockEmployeeRepo) Deactivate(ctx context.Context, id string) error        { return nil }

type mockProcRepo struct {
	procedures   []*procedure.Procedure
	listAllCalls int
}

func (m *mockProcRepo) GetByID(ctx context.Context, id string) (*procedure.Procedure, error) {
	return nil, docstore.ErrNotFound
}

func (m *mockProcRepo) List(ctx context.Context, limit, offset int) ([]*procedure.Procedure, int, error) {
	return nil, 0, nil
}

func (m *mockProcRepo) ListAll(ctx context.Context) ([]*procedure.Procedure, error) {
	m.listAllCalls++
	return m.procedures, nil
}

func (m *mockProcRepo) Create(ctx context.Context, p *procedure.Procedure) error { return nil }
func (m *mockProcRepo) Update(ctx context.Context, p *procedure.Procedure) error { return nil }

type fixture struct {
	engine    *Engine
	invoices  *mockInvoiceRepo
	appts     *mockApptRepo
	patients  *mockPatientRepo
	employees *mockEmployeeRepo
	procs     *mockProcRepo
}

func newFixture() *fixture {
	f := &fixture{
		invoices: newMockInvoiceRepo(),
		appts: &mockApptRepo{appointments: map[string]*appointment.Appointment{
			"A1": {ID: "A1", Active: true, PacienteID: "p-1", Medico: "Dra. Luisa Gomez",
				CodigoCups: "890201", Estado: appointment.StatusAttended, FechaAtencion: "2026-08-20T10:00:00Z"},
			"A2": {ID: "A2", Active: true, PacienteID: "p-1", Medico: "Dra. Luisa Gomez",
				CodigoCups: "890301", Estado: appointment.StatusAttended, FechaAtencion: "2026-08-21T09:00:00Z"},
			"A3": {ID: "A3", Active: true, PacienteID: "ghost", Medico: "Dr. Desconocido",
				CodigoCups: "999999", Estado: appointment.StatusAttended, FechaAtencion: "2026-08-22T11:00:00Z"},
		}},
		patients: &mockPatientRepo{patients: map[string]*patient.Patient{
			"p-1": {ID: "p-1", Active: true, NumeroDocumento: "111", Nombres: "Juan", Apellidos: "Perez"},
		}},
		employees: &mockEmployeeRepo{employees: []*employee.Employee{
			{ID: "e-1", NumeroDocumento: "222", Nombres: "Luisa", Apellidos: "Gomez"},
		}},
		procs: &mockProcRepo{procedures: []*procedure.Procedure{
			{ID: "proc-1", CodigoCups: "890201", Nombre: "Consulta general", Valor: 50000, ValorDefinido: true},
			{ID: "proc-2", CodigoCups: "890301", Nombre: "Consulta especializada", Valor: 30000, ValorDefinido: true},
		}},
	}
	f.engine = NewEngine(f.invoices, f.appts, f.patients, f.employees, f.procs, zerolog.Nop())
	return f
}

func TestBuildDraft_EmptySelection(t *testing.T) {
	f := newFixture()

	_, err := f.engine.BuildDraft(context.Background(), nil)
	if err != ErrEmptySelection {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}

	if f.appts.getCalls != 0 || f.patients.getCalls != 0 ||
		f.employees.listAllCalls != 0 || f.procs.listAllCalls != 0 {
		t.Error("empty selection must not reach any store")
	}
}

func TestIssue_EmptySelection(t *testing.T) {
	f := newFixture()

	_, err := f.engine.Issue(context.Background(), &Invoice{}, nil)
	if err != ErrEmptySelection {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if f.invoices.creates != 0 {
		t.Error("empty selection must not persist anything")
	}
}

func TestBuildDraft_HappyPath(t *testing.T) {
	f := newFixture()

	draft, err := f.engine.BuildDraft(context.Background(), []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}

	if draft.Estado != StatusDraft {
		t.Errorf("expected DRAFT, got %s", draft.Estado)
	}
	if draft.NumeroFactura != DraftNumber {
		t.Errorf("expected placeholder number %q, got %q", DraftNumber, draft.NumeroFactura)
	}
	if draft.Total != 80000 {
		t.Errorf("expected total 80000, got %v", draft.Total)
	}
	if len(draft.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(draft.Items))
	}

	first := draft.Items[0]
	if first.CitaID != "A1" || first.CodigoCups != "890201" || first.Valor != 50000 {
		t.Errorf("unexpected first item %+v", first)
	}
	if first.PacienteNombre != "Juan Perez" || first.PacienteDocumento != "111" {
		t.Errorf("unexpected patient snapshot %+v", first)
	}
	if first.MedicoNombre != "Luisa Gomez" {
		t.Errorf("expected resolved physician name, got %q", first.MedicoNombre)
	}
	if first.Procedimiento != "Consulta general" {
		t.Errorf("unexpected procedure name %q", first.Procedimiento)
	}
	if draft.Items[1].CitaID != "A2" || draft.Items[1].Valor != 30000 {
		t.Errorf("unexpected second item %+v", draft.Items[1])
	}

	// Shared references are fetched once per run.
	if f.patients.getCalls != 1 {
		t.Errorf("expected 1 patient fetch, got %d", f.patients.getCalls)
	}
	if f.employees.listAllCalls != 1 {
		t.Errorf("expected 1 employee batch fetch, got %d", f.employees.listAllCalls)
	}
	if f.procs.listAllCalls != 1 {
		t.Errorf("expected 1 catalog fetch, got %d", f.procs.listAllCalls)
	}
	if f.invoices.creates != 0 {
		t.Error("drafts must never be persisted")
	}
}

func TestBuildDraft_PreservesSelectionOrder(t *testing.T) {
	f := newFixture()

	draft, err := f.engine.BuildDraft(context.Background(), []string{"A2", "A1"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}
	if draft.Items[0].CitaID != "A2" || draft.Items[1].CitaID != "A1" {
		t.Errorf("line items reordered: %s, %s", draft.Items[0].CitaID, draft.Items[1].CitaID)
	}
}

func TestBuildDraft_UnpricedAndUnresolvedReferences(t *testing.T) {
	f := newFixture()

	draft, err := f.engine.BuildDraft(context.Background(), []string{"A1", "A3"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}
	if len(draft.Items) != 2 {
		t.Fatalf("unpriced appointment must not be dropped, got %d items", len(draft.Items))
	}

	item := draft.Items[1]
	if item.Valor != 0 || !item.Unpriced {
		t.Errorf("expected unpriced zero-value item, got %+v", item)
	}
	if item.Procedimiento != procedure.FallbackName {
		t.Errorf("expected fallback procedure name, got %q", item.Procedimiento)
	}
	if item.PacienteNombre != FallbackPatientName {
		t.Errorf("expected fallback patient name, got %q", item.PacienteNombre)
	}
	if item.MedicoNombre != "Dr. Desconocido" {
		t.Errorf("expected raw physician label on miss, got %q", item.MedicoNombre)
	}

	if draft.Total != 50000 {
		t.Errorf("expected total 50000 from the priced item only, got %v", draft.Total)
	}
}

func TestBuildDraft_DuplicateCodesPricedIndependently(t *testing.T) {
	f := newFixture()
	f.appts.appointments["A4"] = &appointment.Appointment{
		ID: "A4", Active: true, PacienteID: "p-1", CodigoCups: "890201",
		Estado: appointment.StatusAttended, FechaAtencion: "2026-08-23T08:00:00Z",
	}

	draft, err := f.engine.BuildDraft(context.Background(), []string{"A1", "A4"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}
	if draft.Total != 100000 {
		t.Errorf("expected both appointments billed, total 100000, got %v", draft.Total)
	}
}

func TestBuildDraft_RejectsNonAttendedAppointments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, estado := range []appointment.Status{
		appointment.StatusScheduled, appointment.StatusCancelled, appointment.StatusNoShow,
	} {
		f.appts.appointments["A9"] = &appointment.Appointment{
			ID: "A9", Active: true, PacienteID: "p-1", Medico: "Dra. Luisa Gomez",
			CodigoCups: "890201", Estado: estado, FechaAtencion: "2026-08-24T10:00:00Z",
		}

		_, err := f.engine.BuildDraft(ctx, []string{"A1", "A9"})
		if !errors.Is(err, ErrNotBillable) {
			t.Errorf("%s: expected ErrNotBillable, got %v", estado, err)
		}
	}

	if f.invoices.creates != 0 {
		t.Error("rejected selection must not persist anything")
	}
}

func TestBuildDraft_MissingAppointment(t *testing.T) {
	f := newFixture()

	_, err := f.engine.BuildDraft(context.Background(), []string{"ghost"})
	if err == nil {
		t.Fatal("expected error for unknown appointment id")
	}
}

func TestBuildDraft_SnapshotIsImmutable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft, err := f.engine.BuildDraft(ctx, []string{"A1"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}

	f.patients.patients["p-1"].Nombres = "Cambiado"
	f.procs.procedures[0].Valor = 99999
	f.appts.appointments["A1"].CodigoCups = "000000"

	if draft.Items[0].PacienteNombre != "Juan Perez" {
		t.Errorf("draft mutated by source edit: %q", draft.Items[0].PacienteNombre)
	}
	if draft.Items[0].Valor != 50000 || draft.Total != 50000 {
		t.Errorf("draft value mutated: %+v", draft.Items[0])
	}
}

func TestIssue_PersistsWithFreshNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft, err := f.engine.BuildDraft(ctx, []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}

	issued, err := f.engine.Issue(ctx, draft, []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if issued.Estado != StatusIssued {
		t.Errorf("expected ISSUED, got %s", issued.Estado)
	}
	if !strings.HasPrefix(issued.NumeroFactura, "FAC-") {
		t.Errorf("expected FAC- number, got %q", issued.NumeroFactura)
	}
	if issued.FechaEmision == "" {
		t.Error("expected emission timestamp")
	}
	if issued.Total != 80000 {
		t.Errorf("expected recomputed total 80000, got %v", issued.Total)
	}
	if issued.ID == "" {
		t.Error("expected persisted id")
	}
	if f.invoices.creates != 1 {
		t.Errorf("expected exactly 1 create, got %d", f.invoices.creates)
	}

	second, err := f.engine.Issue(ctx, draft, []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if second.NumeroFactura == issued.NumeroFactura {
		t.Error("invoice numbers must not repeat")
	}
	if second.NumeroFactura < issued.NumeroFactura {
		t.Errorf("invoice numbers must sort by issuance: %q then %q", issued.NumeroFactura, second.NumeroFactura)
	}
}

func TestIssue_PersistFailureSurfacesUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft, err := f.engine.BuildDraft(ctx, []string{"A1"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}

	f.invoices.failCreate = true
	_, err = f.engine.Issue(ctx, draft, []string{"A1"})
	if err == nil {
		t.Fatal("expected persistence failure to propagate")
	}
	if len(f.invoices.stored) != 0 {
		t.Error("no partial write on failure")
	}
}

func TestMarkPaid_Transitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft, _ := f.engine.BuildDraft(ctx, []string{"A1"})
	issued, err := f.engine.Issue(ctx, draft, []string{"A1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	paid, err := f.engine.MarkPaid(ctx, issued.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Estado != StatusPaid {
		t.Errorf("expected PAID, got %s", paid.Estado)
	}
	if paid.Total != 50000 {
		t.Errorf("expected total preserved, got %v", paid.Total)
	}

	// PAID is terminal.
	if _, err := f.engine.MarkPaid(ctx, issued.ID); err == nil {
		t.Error("expected error when paying an already paid invoice")
	}
}

func TestMarkPaid_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.engine.MarkPaid(context.Background(), "ghost")
	if err != docstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
