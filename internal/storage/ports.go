// Package storage persists project snapshots and the supplier registry.
package storage

import (
	"context"
	"errors"

	"saa/internal/core"
)

// ErrNotFound is returned when a project or supplier does not exist.
var ErrNotFound = errors.New("not found")

type (
	// ProjectStore keeps whole project snapshots. PutProject replaces the
	// stored project, controls and payments included.
	ProjectStore interface {
		ListProjects(ctx context.Context) ([]core.Project, error)
		GetProject(ctx context.Context, id string) (core.Project, error)
		PutProject(ctx context.Context, p core.Project) error
		DeleteProject(ctx context.Context, id string) error
	}

	// SupplierStore keeps the supplier registry.
	SupplierStore interface {
		ListSuppliers(ctx context.Context) ([]core.Supplier, error)
		PutSupplier(ctx context.Context, s core.Supplier) error
		DeleteSupplier(ctx context.Context, id string) error
	}

	// Repository is the full persistence surface used by the services.
	Repository interface {
		ProjectStore
		SupplierStore
		Close() error
	}
)
