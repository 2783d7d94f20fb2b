package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"saa/internal/core"
	"saa/internal/ledger"
	"saa/internal/storage"
)

// EventPublisher is notified after every stored project snapshot.
type EventPublisher interface {
	PublishControlChanged(ctx context.Context, projectID, controlID string, version int64) error
}

// LedgerService owns every mutation of projects and suppliers. Each
// mutation loads the current snapshot, applies the change to a clone,
// re-aggregates the touched control and stores the result as the next
// version.
type LedgerService struct {
	mu     sync.Mutex
	repo   storage.Repository
	events EventPublisher
	newID  func() string
}

func NewLedgerService(repo storage.Repository, events EventPublisher) *LedgerService {
	return &LedgerService{
		repo:   repo,
		events: events,
		newID:  uuid.NewString,
	}
}

// ProjectHeader carries the editable header fields of a project.
type ProjectHeader struct {
	Title            string `json:"title"`
	Organization     string `json:"organization"`
	ResponsibleParty string `json:"responsibleParty"`
	Bank             string `json:"bank"`
	Branch           string `json:"branch"`
	Account          string `json:"account"`
}

func (h ProjectHeader) apply(p *core.Project) {
	p.Title = h.Title
	p.Organization = h.Organization
	p.ResponsibleParty = h.ResponsibleParty
	p.Bank = h.Bank
	p.Branch = h.Branch
	p.Account = h.Account
}

func (s *LedgerService) ListProjects(ctx context.Context) ([]core.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *LedgerService) GetProject(ctx context.Context, id string) (core.Project, error) {
	return s.repo.GetProject(ctx, id)
}

// CreateProject stores a new project without controls.
func (s *LedgerService) CreateProject(ctx context.Context, h ProjectHeader) (core.Project, error) {
	if strings.TrimSpace(h.Title) == "" {
		return core.Project{}, fmt.Errorf("%w: project title is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := core.Project{ID: s.newID(), Version: 1}
	h.apply(&p)
	if err := s.repo.PutProject(ctx, p); err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}

	slog.InfoContext(ctx, "Project created", "project_id", p.ID, "title", p.Title)
	return p, nil
}

// UpdateProject replaces the header fields of a project.
func (s *LedgerService) UpdateProject(ctx context.Context, id string, h ProjectHeader) (core.Project, error) {
	if strings.TrimSpace(h.Title) == "" {
		return core.Project{}, fmt.Errorf("%w: project title is required", ErrInvalidInput)
	}
	return s.mutate(ctx, id, "", func(p *core.Project) error {
		h.apply(p)
		return nil
	})
}

func (s *LedgerService) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	slog.InfoContext(ctx, "Project deleted", "project_id", id)
	return nil
}

// AddControl appends a new, empty monthly control to a project.
func (s *LedgerService) AddControl(ctx context.Context, projectID, name string) (core.MonthlyControl, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.MonthlyControl{}, fmt.Errorf("%w: control name is required", ErrInvalidInput)
	}

	c := core.MonthlyControl{ID: s.newID(), Name: name}
	c.Financials = ledger.Aggregate(nil, c.Financials)

	_, err := s.mutate(ctx, projectID, c.ID, func(p *core.Project) error {
		p.Controls = append(p.Controls, c)
		return nil
	})
	if err != nil {
		return core.MonthlyControl{}, err
	}
	return c, nil
}

// RenameControl changes the display name of a control.
func (s *LedgerService) RenameControl(ctx context.Context, projectID, controlID, name string) (core.MonthlyControl, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.MonthlyControl{}, fmt.Errorf("%w: control name is required", ErrInvalidInput)
	}
	return s.mutateControl(ctx, projectID, controlID, func(c *core.MonthlyControl) error {
		c.Name = name
		return nil
	})
}

// DeleteControl removes a control together with its payments and
// financial data.
func (s *LedgerService) DeleteControl(ctx context.Context, projectID, controlID string) error {
	_, err := s.mutate(ctx, projectID, controlID, func(p *core.Project) error {
		i := p.ControlIndex(controlID)
		if i < 0 {
			return fmt.Errorf("control %s: %w", controlID, ErrNotFound)
		}
		p.Controls = append(p.Controls[:i], p.Controls[i+1:]...)
		return nil
	})
	return err
}

// GetControl returns one control of a project.
func (s *LedgerService) GetControl(ctx context.Context, projectID, controlID string) (core.MonthlyControl, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return core.MonthlyControl{}, err
	}
	i := p.ControlIndex(controlID)
	if i < 0 {
		return core.MonthlyControl{}, fmt.Errorf("control %s: %w", controlID, ErrNotFound)
	}
	return p.Controls[i], nil
}

// SavePayment inserts or replaces a payment by ID. A payment without ID is
// appended with a new one. A supplier tax id unknown to the registry adds
// the payment's supplier to it.
func (s *LedgerService) SavePayment(ctx context.Context, projectID, controlID string, pay core.Payment) (core.Payment, error) {
	if pay.ID == "" {
		pay.ID = s.newID()
	}

	_, err := s.mutateControl(ctx, projectID, controlID, func(c *core.MonthlyControl) error {
		if i := c.PaymentIndex(pay.ID); i >= 0 {
			c.Payments[i] = pay
		} else {
			c.Payments = append(c.Payments, pay)
		}
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}

	if err := s.registerSupplier(ctx, pay); err != nil {
		slog.WarnContext(ctx, "Failed to register supplier from payment",
			"payment_id", pay.ID, "error", err)
	}
	return pay, nil
}

// ImportPayments appends payments, typically decoded from a CSV export, to
// a control. Every imported payment gets a new ID.
func (s *LedgerService) ImportPayments(ctx context.Context, projectID, controlID string, payments []core.Payment) (core.MonthlyControl, error) {
	imported := make([]core.Payment, len(payments))
	for i, p := range payments {
		p.ID = s.newID()
		imported[i] = p
	}
	c, err := s.mutateControl(ctx, projectID, controlID, func(c *core.MonthlyControl) error {
		c.Payments = append(c.Payments, imported...)
		return nil
	})
	if err != nil {
		return core.MonthlyControl{}, err
	}
	for _, p := range imported {
		if err := s.registerSupplier(ctx, p); err != nil {
			slog.WarnContext(ctx, "Failed to register supplier from import", "error", err)
		}
	}
	return c, nil
}

func (s *LedgerService) DeletePayment(ctx context.Context, projectID, controlID, paymentID string) error {
	_, err := s.mutateControl(ctx, projectID, controlID, func(c *core.MonthlyControl) error {
		i := c.PaymentIndex(paymentID)
		if i < 0 {
			return fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}
		c.Payments = append(c.Payments[:i], c.Payments[i+1:]...)
		return nil
	})
	return err
}

// SaveFinancials replaces the period inputs of a control. The derived
// subtotals are recomputed from the payments whatever the caller sent.
func (s *LedgerService) SaveFinancials(ctx context.Context, projectID, controlID string, fin core.FinancialData) (core.MonthlyControl, error) {
	return s.mutateControl(ctx, projectID, controlID, func(c *core.MonthlyControl) error {
		c.Financials = fin
		return nil
	})
}

func (s *LedgerService) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// SaveSupplier inserts or replaces a registry entry.
func (s *LedgerService) SaveSupplier(ctx context.Context, sup core.Supplier) (core.Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return core.Supplier{}, fmt.Errorf("%w: supplier name is required", ErrInvalidInput)
	}
	if sup.ID == "" {
		sup.ID = s.newID()
	}
	if err := s.repo.PutSupplier(ctx, sup); err != nil {
		return core.Supplier{}, fmt.Errorf("save supplier: %w", err)
	}
	return sup, nil
}

func (s *LedgerService) DeleteSupplier(ctx context.Context, id string) error {
	return s.repo.DeleteSupplier(ctx, id)
}

func (s *LedgerService) registerSupplier(ctx context.Context, p core.Payment) error {
	taxID := strings.TrimSpace(p.SupplierTaxID)
	if taxID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	for _, sup := range suppliers {
		if strings.TrimSpace(sup.TaxID) == taxID {
			return nil
		}
	}

	sup := core.SupplierFromPayment(p)
	sup.ID = s.newID()
	if err := s.repo.PutSupplier(ctx, sup); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Supplier registered from payment", "supplier_id", sup.ID, "tax_id", taxID)
	return nil
}

func (s *LedgerService) mutateControl(ctx context.Context, projectID, controlID string, fn func(*core.MonthlyControl) error) (core.MonthlyControl, error) {
	var out core.MonthlyControl
	_, err := s.mutate(ctx, projectID, controlID, func(p *core.Project) error {
		i := p.ControlIndex(controlID)
		if i < 0 {
			return fmt.Errorf("control %s: %w", controlID, ErrNotFound)
		}
		c := p.Controls[i]
		if err := fn(&c); err != nil {
			return err
		}
		p.Controls[i] = ledger.Refresh(c)
		out = p.Controls[i].Clone()
		return nil
	})
	return out, err
}

// mutate applies fn to a clone of the stored project and stores it as the
// next version. The stored snapshot is left untouched when fn fails.
func (s *LedgerService) mutate(ctx context.Context, projectID, controlID string, fn func(*core.Project) error) (core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return core.Project{}, err
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return core.Project{}, err
	}
	next.Version = current.Version + 1

	if err := s.repo.PutProject(ctx, next); err != nil {
		return core.Project{}, fmt.Errorf("store project %s: %w", projectID, err)
	}

	s.publish(ctx, next.ID, controlID, next.Version)
	return next, nil
}

func (s *LedgerService) publish(ctx context.Context, projectID, controlID string, version int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishControlChanged(ctx, projectID, controlID, version); err != nil {
		// the snapshot is stored; the next change republishes the project
		slog.ErrorContext(ctx, "Failed to publish control change",
			"project_id", projectID,
			"control_id", controlID,
			"version", version,
			"error", err)
	}
}

// Close releases the repository.
func (s *LedgerService) Close() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close repository: %w", err)
	}
	return nil
}
