package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"saa/internal/cache"
	"saa/internal/core"
	"saa/internal/export"
)

func newTestExport(t *testing.T) (*ExportService, *LedgerService, *cache.LRUCache[[]byte]) {
	t.Helper()
	ledgerSvc, _, repo := newTestLedger(t)
	workbooks := cache.NewLRUCache[[]byte](4, time.Hour)
	svc := NewExportService(repo, workbooks)
	svc.now = func() time.Time { return time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC) }
	return svc, ledgerSvc, workbooks
}

func TestControlCSV(t *testing.T) {
	svc, ledgerSvc, _ := newTestExport(t)
	ctx := context.Background()
	p, c := seedControl(t, ledgerSvc)

	_, err := svc.ControlCSV(ctx, p.ID, c.ID)
	assert.True(t, errors.Is(err, ErrNoPayments))

	_, err = ledgerSvc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "10", Description: "a, b"})
	require.NoError(t, err)

	f, err := svc.ControlCSV(ctx, p.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Projeto_Água_Janeiro_2024.csv", f.Name)
	assert.Equal(t, ContentTypeCSV, f.ContentType)
	assert.True(t, bytes.HasPrefix(f.Data, export.BOM))

	records, err := export.DecodeCSV(bytes.NewReader(f.Data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a, b", records[0][9])

	_, err = svc.ControlCSV(ctx, p.ID, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProjectWorkbook(t *testing.T) {
	svc, ledgerSvc, workbooks := newTestExport(t)
	ctx := context.Background()

	p, err := ledgerSvc.CreateProject(ctx, ProjectHeader{Title: "Projeto Água"})
	require.NoError(t, err)
	_, err = svc.ProjectWorkbook(ctx, p.ID)
	assert.True(t, errors.Is(err, ErrNoControls))

	c, err := ledgerSvc.AddControl(ctx, p.ID, "Janeiro")
	require.NoError(t, err)
	_, err = ledgerSvc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "42", Category: "Serviços"})
	require.NoError(t, err)

	f, err := svc.ProjectWorkbook(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Projeto_Água_completo.xlsx", f.Name)
	assert.Equal(t, 1, workbooks.Size())

	again, err := svc.ProjectWorkbook(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Data, again.Data)
	hits, _ := workbooks.Stats()
	assert.Equal(t, int64(1), hits)

	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Janeiro", "PC - Janeiro"}, wb.GetSheetList())

	svc.InvalidateProject(p.ID)
	assert.Equal(t, 0, workbooks.Size())
}

func TestStatementAndDocumentFields(t *testing.T) {
	svc, ledgerSvc, _ := newTestExport(t)
	ctx := context.Background()
	p, c := seedControl(t, ledgerSvc)

	_, err := ledgerSvc.SaveFinancials(ctx, p.ID, c.ID, core.FinancialData{PriorBalance: "200", InstallmentReceived: "0"})
	require.NoError(t, err)

	st, err := svc.Statement(ctx, p.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "200", st.Totals.AvailableToSpend.String())
	assert.Equal(t, "200", st.Totals.ComputedClosingBalance.String())
	assert.Empty(t, st.Ordinary)
	assert.Equal(t, "2024-02-05", st.Issued)

	pay, err := ledgerSvc.SavePayment(ctx, p.ID, c.ID, core.Payment{Amount: "12.3", DueDate: "2024-01-09", Reference: "SAA-1"})
	require.NoError(t, err)

	fields, err := svc.DocumentFields(ctx, p.ID, c.ID, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, "SAA-1", fields["SAA"])
	assert.Equal(t, "05/02/2024", fields["dataEmissaoBR"])
	assert.Equal(t, "09/01/2024", fields["dataVencimentoBR"])
	assert.Equal(t, "R$ 12,30", fields["valorBR"])

	_, err = svc.DocumentFields(ctx, p.ID, c.ID, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "Projeto_AB", fileStem(" Projeto A/B "))
	assert.Equal(t, "projeto", fileStem(""))
}
