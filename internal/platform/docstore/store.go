// Package docstore is the record-fetch/persist capability the domain packages
// are built on. Every clinic entity is stored as an opaque document string in
// a per-kind collection; the store never interprets the document. Two
// implementations exist: PG (local Postgres) and Remote (the legacy CRUD
// store over HTTP).
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record id does not exist in its collection.
var ErrNotFound = errors.New("record not found")

// Collection names one entity kind's record set. The constants double as
// table names for the PG store and path segments for the remote store.
type Collection string

const (
	Patients     Collection = "pacientes"
	Employees    Collection = "empleados"
	Procedures   Collection = "procedimientos"
	Appointments Collection = "citas"
	Invoices     Collection = "facturas"
)

// HasLifecycle reports whether records of this collection carry the `activo`
// soft-delete flag. Procedure codes and invoices do not.
func (c Collection) HasLifecycle() bool {
	switch c {
	case Procedures, Invoices:
		return false
	default:
		return true
	}
}

// Record is the store-level shape of every entity: an id and timestamps
// assigned by the store, the lifecycle flag, and the opaque document string.
type Record struct {
	ID        string    `json:"id"`
	Active    bool      `json:"activo"`
	Document  string    `json:"documento"`
	CreatedAt time.Time `json:"fechaCreacion"`
	UpdatedAt time.Time `json:"fechaActualizacion"`
}

// Store is the CRUD capability per collection. Implementations own transport
// concerns (timeouts, retries); callers own nothing but the document string.
type Store interface {
	Get(ctx context.Context, col Collection, id string) (*Record, error)
	// List returns a page of records plus the total count. onlyActive is
	// ignored for collections without a lifecycle flag.
	List(ctx context.Context, col Collection, onlyActive bool, limit, offset int) ([]*Record, int, error)
	Create(ctx context.Context, col Collection, document string) (*Record, error)
	Update(ctx context.Context, col Collection, id, document string) (*Record, error)
	// Deactivate soft-deletes a record. It fails for collections without a
	// lifecycle flag.
	Deactivate(ctx context.Context, col Collection, id string) error
}
