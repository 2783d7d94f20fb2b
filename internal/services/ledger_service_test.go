package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saa/internal/core"
	"saa/internal/storage"
)

type recordedEvent struct {
	projectID, controlID string
	version              int64
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakePublisher) PublishControlChanged(_ context.Context, projectID, controlID string, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{projectID, controlID, version})
	return f.err
}

func newTestLedger(t *testing.T) (*LedgerService, *fakePublisher, *storage.MemoryRepository) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	pub := &fakePublisher{}
	svc := NewLedgerService(repo, pub)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, pub, repo
}

func seedControl(t *testing.T, svc *LedgerService) (core.Project, core.MonthlyControl) {
	t.Helper()
	ctx := context.Background()
	p, err := svc.CreateProject(ctx, ProjectHeader{Title: "Projeto Água", Bank: "001"})
	require.NoError(t, err)
	c, err := svc.AddControl(ctx, p.ID, "Janeiro 2024")
	require.NoError(t, err)
	return p, c
}

func TestCreateProjectRequiresTitle(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	_, err := svc.CreateProject(context.Background(), ProjectHeader{Title: "  "})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestSavePaymentReaggregates(t *testing.T) {
	svc, pub, _ := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)

	_, err := svc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "100.5", Category: core.CategoryBankFees, DueDate: "2024-01-25"})
	require.NoError(t, err)
	saved, err := svc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "20", Category: "Serviços", DueDate: "2024-01-10"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	got, err := svc.GetControl(ctx, p.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Payments, 2)
	assert.Equal(t, "100.5", got.Financials.BankFees)
	assert.Equal(t, "0", got.Financials.Reversals)
	assert.Equal(t, "2024-01-10", got.Financials.PeriodFrom)
	assert.Equal(t, "2024-01-25", got.Financials.PeriodTo)

	project, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), project.Version)

	require.Len(t, pub.events, 3)
	assert.Equal(t, recordedEvent{p.ID, c.ID, 4}, pub.events[2])
}

func TestSavePaymentUpsertsByID(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)

	pay, err := svc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "10", Category: core.CategoryReversals})
	require.NoError(t, err)

	pay.Amount = "15"
	_, err = svc.SavePayment(ctx, p.ID, c.ID, pay)
	require.NoError(t, err)

	got, err := svc.GetControl(ctx, p.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, "15", got.Financials.Reversals)
}

func TestDeletePaymentUpdatesSubtotals(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)

	pay, err := svc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "7", Category: core.CategoryImproperPayment})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePayment(ctx, p.ID, c.ID, pay.ID))

	got, err := svc.GetControl(ctx, p.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Payments)
	assert.Equal(t, "0", got.Financials.ImproperPayment)

	err = svc.DeletePayment(ctx, p.ID, c.ID, pay.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveFinancialsOverwritesDerivedFields(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)
	_, err := svc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "3", Category: core.CategoryBankFees})
	require.NoError(t, err)

	got, err := svc.SaveFinancials(ctx, p.ID, c.ID, core.FinancialData{
		PriorBalance: "200",
		BankFees:     "9999",
		PeriodFrom:   "2023-12-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "3", got.Financials.BankFees)
	assert.Equal(t, "200", got.Financials.PriorBalance)
	assert.Equal(t, "2023-12-01", got.Financials.PeriodFrom)
}

func TestMutationFailureLeavesSnapshot(t *testing.T) {
	svc, pub, repo := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)

	before, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	events := len(pub.events)

	err = svc.DeletePayment(ctx, p.ID, c.ID, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	after, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, pub.events, events)
}

func TestControlLifecycle(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)

	_, err := svc.AddControl(ctx, p.ID, "")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	renamed, err := svc.RenameControl(ctx, p.ID, c.ID, "Jan/24")
	require.NoError(t, err)
	assert.Equal(t, "Jan/24", renamed.Name)

	require.NoError(t, svc.DeleteControl(ctx, p.ID, c.ID))
	_, err = svc.GetControl(ctx, p.ID, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(svc.DeleteControl(ctx, p.ID, c.ID), ErrNotFound))

	_, err = svc.AddControl(ctx, "nope", "Fevereiro")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSavePaymentRegistersUnknownSupplier(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)

	_, err := svc.SaveSupplier(ctx, core.Supplier{Name: "Conhecido", TaxID: "111"})
	require.NoError(t, err)

	for _, pay := range []core.Payment{
		{SupplierName: "Conhecido", SupplierTaxID: "111"},
		{SupplierName: "Novo", SupplierTaxID: "222", PixKey: "novo@pix"},
		{SupplierName: "Novo de novo", SupplierTaxID: " 222 "},
		{SupplierName: "Sem documento"},
	} {
		_, err := svc.SavePayment(ctx, p.ID, c.ID, pay)
		require.NoError(t, err)
	}

	suppliers, err := svc.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "Novo", suppliers[1].Name)
	assert.Equal(t, "novo@pix", suppliers[1].PixKey)
}

func TestImportPayments(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	p, c := seedControl(t, svc)

	got, err := svc.ImportPayments(ctx, p.ID, c.ID, []core.Payment{
		{ID: "ignored", Amount: "5", Category: core.CategoryBankFees},
		{Amount: "6", Category: core.CategoryBankFees},
	})
	require.NoError(t, err)
	require.Len(t, got.Payments, 2)
	assert.NotEqual(t, "ignored", got.Payments[0].ID)
	assert.NotEqual(t, got.Payments[0].ID, got.Payments[1].ID)
	assert.Equal(t, "11", got.Financials.BankFees)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, pub, _ := newTestLedger(t)
	pub.err = errors.New("broker down")
	ctx := context.Background()
	p, c := seedControl(t, svc)

	_, err := svc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "1"})
	assert.NoError(t, err)
}

func TestNilPublisher(t *testing.T) {
	svc := NewLedgerService(storage.NewMemoryRepository(), nil)
	p, err := svc.CreateProject(context.Background(), ProjectHeader{Title: "x"})
	require.NoError(t, err)
	_, err = svc.AddControl(context.Background(), p.ID, "Jan")
	assert.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestSupplierValidation(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	_, err := svc.SaveSupplier(context.Background(), core.Supplier{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(svc.DeleteSupplier(context.Background(), "nope"), ErrNotFound))
}
