package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestRemote(t *testing.T, handler http.HandlerFunc) *Remote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemote(srv.URL, 2*time.Second, zerolog.Nop())
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestRemote_Get(t *testing.T) {
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pacientes/p-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, Record{ID: "p-1", Active: true, Document: `{"numeroDocumento":"111"}`})
	})

	rec, err := s.Get(context.Background(), Patients, "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ID != "p-1" || rec.Document != `{"numeroDocumento":"111"}` {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestRemote_GetParsesMislabeledResponse(t *testing.T) {
	// The legacy store serves JSON without a Content-Type header, so the
	// body gets sniffed as text/plain. The client must decode it anyway.
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Record{ID: "p-2", Active: true, Document: `{"numeroDocumento":"222"}`})
	})

	rec, err := s.Get(context.Background(), Patients, "p-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ID != "p-2" || rec.Document != `{"numeroDocumento":"222"}` {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestRemote_GetNotFound(t *testing.T) {
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.Get(context.Background(), Patients, "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemote_ListQueryParams(t *testing.T) {
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "20" || q.Get("offset") != "40" {
			t.Errorf("unexpected pagination params: %v", q)
		}
		if q.Get("activo") != "true" {
			t.Errorf("expected activo filter, got %v", q)
		}
		writeJSON(t, w, listResponse{Data: []*Record{{ID: "a"}, {ID: "b"}}, Total: 12})
	})

	records, total, err := s.List(context.Background(), Employees, true, 20, 40)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || total != 12 {
		t.Errorf("got %d records, total %d", len(records), total)
	}
}

func TestRemote_ListNoLifecycleFilter(t *testing.T) {
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("activo") {
			t.Error("procedimientos must not be filtered by activo")
		}
		writeJSON(t, w, listResponse{})
	})

	if _, _, err := s.List(context.Background(), Procedures, true, 10, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestRemote_CreateSendsDocument(t *testing.T) {
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var payload documentPayload
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Document != `{"datosJson":"{}"}` {
			t.Errorf("unexpected payload %q", payload.Document)
		}
		writeJSON(t, w, Record{ID: "new-1", Active: true, Document: payload.Document})
	})

	rec, err := s.Create(context.Background(), Invoices, `{"datosJson":"{}"}`)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != "new-1" {
		t.Errorf("unexpected id %s", rec.ID)
	}
}

func TestRemote_CreateSurfacesStoreError(t *testing.T) {
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := s.Create(context.Background(), Invoices, `{}`); err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestRemote_DeactivateRejectsLifecyclelessCollection(t *testing.T) {
	s := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the store")
	})

	if err := s.Deactivate(context.Background(), Procedures, "x"); err == nil {
		t.Fatal("expected error for collection without lifecycle flag")
	}
}

func TestCollection_HasLifecycle(t *testing.T) {
	for col, want := range map[Collection]bool{
		Patients: true, Employees: true, Appointments: true,
		Procedures: false, Invoices: false,
	} {
		if got := col.HasLifecycle(); got != want {
			t.Errorf("%s: HasLifecycle = %v, want %v", col, got, want)
		}
	}
}
