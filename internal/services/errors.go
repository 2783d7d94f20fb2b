package services

import (
	"errors"

	"saa/internal/storage"
)

var (
	// ErrNotFound matches missing projects, controls, payments and suppliers.
	ErrNotFound = storage.ErrNotFound

	// ErrInvalidInput is returned for requests missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoPayments is the advisory raised before exporting an empty control.
	ErrNoPayments = errors.New("não há pagamentos neste mês para exportar")

	// ErrNoControls is the advisory raised before exporting a project
	// without monthly controls.
	ErrNoControls = errors.New("não há controles mensais para exportar")
)
