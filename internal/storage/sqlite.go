package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"saa/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores projects in normalized tables: one row per
// project, per control and per payment, ordered by position.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const projectColumns = `id, title, organization, responsible_party, bank, branch, account, version`

const controlColumns = `id, name, period_from, period_to, total_approved, installment_received,
	prior_balance, investment_yield, donation, inter_account_loans, credit_refund, network_donation,
	redemptions, bank_fees, reversals, financial_application, improper_payment,
	bank_statement_balance, investment_statement_balance, statement_date`

const paymentColumns = `id, reference, due_date, payment_date, amount, amount_paid, category,
	objective, description, notes, payment_status, approval_status, voucher_type, voucher_number,
	supplier_code, supplier_name, supplier_tax_id, bank_code, branch, account, pix_key`

const supplierColumns = `id, code, name, tax_id, bank_code, branch, account, pix_key`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (core.Project, error) {
	var p core.Project
	err := s.Scan(&p.ID, &p.Title, &p.Organization, &p.ResponsibleParty, &p.Bank, &p.Branch, &p.Account, &p.Version)
	return p, err
}

func controlFields(c *core.MonthlyControl) []any {
	f := &c.Financials
	return []any{
		&c.ID, &c.Name, &f.PeriodFrom, &f.PeriodTo, &f.TotalApproved, &f.InstallmentReceived,
		&f.PriorBalance, &f.InvestmentYield, &f.Donation, &f.InterAccountLoans, &f.CreditRefund, &f.NetworkDonation,
		&f.Redemptions, &f.BankFees, &f.Reversals, &f.FinancialApplication, &f.ImproperPayment,
		&f.BankStatementBalance, &f.InvestmentStatementBalance, &f.StatementDate,
	}
}

func paymentFields(p *core.Payment) []any {
	return []any{
		&p.ID, &p.Reference, &p.DueDate, &p.PaymentDate, &p.Amount, &p.AmountPaid, &p.Category,
		&p.Objective, &p.Description, &p.Notes, &p.PaymentStatus, &p.ApprovalStatus, &p.VoucherType, &p.VoucherNumber,
		&p.SupplierCode, &p.SupplierName, &p.SupplierTaxID, &p.BankCode, &p.Branch, &p.Account, &p.PixKey,
	}
}

func supplierFields(s *core.Supplier) []any {
	return []any{&s.ID, &s.Code, &s.Name, &s.TaxID, &s.BankCode, &s.Branch, &s.Account, &s.PixKey}
}

// values dereferences the pointers returned by the *Fields helpers.
func values(ptrs []any) []any {
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		out[i] = *(p.(*string))
	}
	return out
}

func placeholders(n int) string {
	b := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var out []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	// Controls are loaded after the cursor is released; the pool holds a
	// single connection.
	for i := range out {
		if out[i].Controls, err = r.loadControls(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (core.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}

	controls, err := r.loadControls(ctx, id)
	if err != nil {
		return core.Project{}, err
	}
	p.Controls = controls
	return p, nil
}

func (r *SQLiteRepository) loadControls(ctx context.Context, projectID string) ([]core.MonthlyControl, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+controlColumns+` FROM controls WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	defer rows.Close()

	var controls []core.MonthlyControl
	index := map[string]int{}
	for rows.Next() {
		var c core.MonthlyControl
		if err := rows.Scan(controlFields(&c)...); err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		index[c.ID] = len(controls)
		controls = append(controls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate controls: %w", err)
	}

	prows, err := r.db.QueryContext(ctx,
		`SELECT control_id, `+paymentColumns+` FROM payments WHERE project_id = ? ORDER BY control_id, position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var controlID string
		var p core.Payment
		if err := prows.Scan(append([]any{&controlID}, paymentFields(&p)...)...); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		i, ok := index[controlID]
		if !ok {
			continue
		}
		controls[i].Payments = append(controls[i].Payments, p)
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return controls, nil
}

func (r *SQLiteRepository) PutProject(ctx context.Context, p core.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, position, title, organization, responsible_party, bank, branch, account, version)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM projects), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			organization = excluded.organization,
			responsible_party = excluded.responsible_party,
			bank = excluded.bank,
			branch = excluded.branch,
			account = excluded.account,
			version = excluded.version,
			updated_at = CURRENT_TIMESTAMP`,
		p.ID, p.Title, p.Organization, p.ResponsibleParty, p.Bank, p.Branch, p.Account, p.Version)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}

	if err := deleteChildren(ctx, tx, p.ID); err != nil {
		return err
	}

	insertControl := `INSERT INTO controls (project_id, position, ` + controlColumns + `) VALUES (?, ?, ` + placeholders(20) + `)`
	insertPayment := `INSERT INTO payments (project_id, control_id, position, ` + paymentColumns + `) VALUES (?, ?, ?, ` + placeholders(21) + `)`

	for ci := range p.Controls {
		c := p.Controls[ci]
		args := append([]any{p.ID, ci}, values(controlFields(&c))...)
		if _, err := tx.ExecContext(ctx, insertControl, args...); err != nil {
			return fmt.Errorf("insert control %s: %w", c.ID, err)
		}
		for pi := range c.Payments {
			pay := c.Payments[pi]
			args := append([]any{p.ID, c.ID, pi}, values(paymentFields(&pay))...)
			if _, err := tx.ExecContext(ctx, insertPayment, args...); err != nil {
				return fmt.Errorf("insert payment %s: %w", pay.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit project %s: %w", p.ID, err)
	}

	slog.DebugContext(ctx, "Project snapshot stored",
		"project_id", p.ID,
		"version", p.Version,
		"controls", len(p.Controls))
	return nil
}

func deleteChildren(ctx context.Context, tx *sql.Tx, projectID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM controls WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete controls: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err := deleteChildren(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var out []core.Supplier
	for rows.Next() {
		var s core.Supplier
		if err := rows.Scan(supplierFields(&s)...); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) PutSupplier(ctx context.Context, s core.Supplier) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suppliers (position, `+supplierColumns+`)
		VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM suppliers), `+placeholders(8)+`)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			tax_id = excluded.tax_id,
			bank_code = excluded.bank_code,
			branch = excluded.branch,
			account = excluded.account,
			pix_key = excluded.pix_key`,
		values(supplierFields(&s))...)
	if err != nil {
		return fmt.Errorf("upsert supplier: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSupplier(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	return nil
}
