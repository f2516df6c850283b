package clients

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paintworks/paintworks/internal/shared"
)

type memoryRepo struct {
	clients  map[int64]Client
	invoices map[int64]Invoice
	payments map[int64]Payment
	nextID   int64
	txCalls  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clients: map[int64]Client{}, invoices: map[int64]Invoice{}, payments: map[int64]Payment{}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	r.txCalls++
	return fn(ctx, r)
}

func (r *memoryRepo) sorted() []Client {
	result := []Client{}
	for _, c := range r.clients {
		result = append(result, r.withBalance(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *memoryRepo) List(ctx context.Context) ([]Client, error) {
	return r.sorted(), nil
}

func (r *memoryRepo) withBalance(c Client) Client {
	invoiced, _ := r.InvoiceTotals(context.Background(), c.ID)
	paid, _ := r.PaymentTotals(context.Background(), c.ID)
	c.Balance = Balance{
		InvoiceCount:  invoiced.Count,
		PaymentCount:  paid.Count,
		TotalInvoiced: invoiced.Sum,
		TotalPaid:     paid.Sum,
		Outstanding:   shared.RoundCents(invoiced.Sum - paid.Sum),
	}
	return c
}

func (r *memoryRepo) Search(ctx context.Context, term string) ([]Client, error) {
	term = strings.ToLower(term)
	result := []Client{}
	for _, c := range r.sorted() {
		if strings.Contains(strings.ToLower(c.CompanyName), term) || strings.Contains(strings.ToLower(c.TaxID), term) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return Client{}, shared.NotFound("cliente", id)
	}
	return r.withBalance(c), nil
}

func (r *memoryRepo) Create(ctx context.Context, c Client) (int64, error) {
	for _, existing := range r.clients {
		if existing.TaxID == c.TaxID {
			return 0, shared.Conflict("duplicate value violates clientes_nit_key")
		}
	}
	r.nextID++
	c.ID = r.nextID
	r.clients[c.ID] = c
	return c.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, c Client) error {
	if _, ok := r.clients[c.ID]; !ok {
		return shared.NotFound("cliente", c.ID)
	}
	c.Balance = Balance{}
	r.clients[c.ID] = c
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.clients[id]; !ok {
		return shared.NotFound("cliente", id)
	}
	delete(r.clients, id)
	return nil
}

func (r *memoryRepo) CountInvoices(ctx context.Context, clientID int64) (int, error) {
	n := 0
	for _, inv := range r.invoices {
		if inv.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) CountPayments(ctx context.Context, clientID int64) (int, error) {
	n := 0
	for _, p := range r.payments {
		if p.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) Invoices(ctx context.Context, clientID int64) ([]Invoice, error) {
	result := []Invoice{}
	for _, inv := range r.invoices {
		if inv.ClientID == clientID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, shared.NotFound("factura", id)
	}
	return inv, nil
}

func (r *memoryRepo) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	r.nextID++
	inv.ID = r.nextID
	r.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (r *memoryRepo) Payments(ctx context.Context, clientID int64) ([]Payment, error) {
	result := []Payment{}
	for _, p := range r.payments {
		if p.ClientID == clientID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *memoryRepo) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	r.payments[p.ID] = p
	return p.ID, nil
}

func (r *memoryRepo) InvoiceTotals(ctx context.Context, clientID int64) (Totals, error) {
	var t Totals
	for _, inv := range r.invoices {
		if inv.ClientID == clientID && inv.Status != InvoiceVoid {
			t.Count++
			t.Sum += inv.Total
		}
	}
	return t, nil
}

func (r *memoryRepo) PaymentTotals(ctx context.Context, clientID int64) (Totals, error) {
	var t Totals
	for _, p := range r.payments {
		if p.ClientID == clientID {
			t.Count++
			t.Sum += p.Amount
		}
	}
	return t, nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(repo *memoryRepo, audit AuditPort) *Service {
	svc := NewService(repo, audit, ServiceConfig{})
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC) }
	return svc
}

func seedClient(t *testing.T, svc *Service, nit string) Client {
	t.Helper()
	c, err := svc.Create(context.Background(), ClientRequest{CompanyName: "Ferretería " + nit, TaxID: nit, Email: " Compras@Example.COM "})
	require.NoError(t, err)
	return c
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	c := seedClient(t, svc, "900123456-7")
	require.Equal(t, "compras@example.com", c.Email)

	_, err := svc.Create(context.Background(), ClientRequest{CompanyName: "Otra", TaxID: "900123456-7"})
	require.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Create(context.Background(), ClientRequest{CompanyName: "Otra", TaxID: "1", Phone: "12"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Create(context.Background(), ClientRequest{CompanyName: "  ", TaxID: "1"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestDeleteWithoutDependentsSucceeds(t *testing.T) {
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	svc := newTestService(repo, audit)
	c := seedClient(t, svc, "1")

	require.NoError(t, svc.Delete(context.Background(), c.ID))
	require.Empty(t, repo.clients)
	require.Equal(t, 1, repo.txCalls)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "clientes", audit.logs[0].Entity)
}

func TestDeleteWithInvoiceIsConflict(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	c := seedClient(t, svc, "1")
	_, err := svc.CreateInvoice(context.Background(), c.ID, InvoiceRequest{Number: "FV-1", Total: 100})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), c.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Contains(t, err.Error(), "facturas")
	require.Len(t, repo.clients, 1)
}

func TestDeleteWithPaymentIsConflict(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	c := seedClient(t, svc, "1")
	_, err := svc.CreatePayment(context.Background(), c.ID, PaymentRequest{Amount: 50, Method: "transferencia"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), c.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Contains(t, err.Error(), "pagos")
}

func TestDeleteUnknownClientIsNotFound(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	require.ErrorIs(t, svc.Delete(context.Background(), 9), shared.ErrNotFound)
}

func TestInvoiceDefaults(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	c := seedClient(t, svc, "1")

	inv, err := svc.CreateInvoice(context.Background(), c.ID, InvoiceRequest{Number: " FV-10 ", Total: 10.005})
	require.NoError(t, err)
	require.Equal(t, "FV-10", inv.Number)
	require.Equal(t, InvoicePending, inv.Status)
	require.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), inv.Date)

	_, err = svc.CreateInvoice(context.Background(), c.ID, InvoiceRequest{Number: "FV-11", Date: "10/05/2024"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.CreateInvoice(context.Background(), 99, InvoiceRequest{Number: "FV-12"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentMustReferenceOwnInvoice(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()
	a := seedClient(t, svc, "1")
	b := seedClient(t, svc, "2")
	inv, err := svc.CreateInvoice(ctx, a.ID, InvoiceRequest{Number: "FV-1", Total: 100})
	require.NoError(t, err)

	_, err = svc.CreatePayment(ctx, b.ID, PaymentRequest{InvoiceID: &inv.ID, Amount: 10})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	p, err := svc.CreatePayment(ctx, a.ID, PaymentRequest{InvoiceID: &inv.ID, Amount: 10, Date: "2024-05-01"})
	require.NoError(t, err)
	require.Equal(t, inv.ID, *p.InvoiceID)

	_, err = svc.CreatePayment(ctx, a.ID, PaymentRequest{Amount: 0})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestStatsComputesOutstandingBalance(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()
	c := seedClient(t, svc, "1")
	for i, total := range []float64{1000, 250.5} {
		_, err := svc.CreateInvoice(ctx, c.ID, InvoiceRequest{Number: "FV-" + string(rune('A'+i)), Total: total})
		require.NoError(t, err)
	}
	_, err := svc.CreateInvoice(ctx, c.ID, InvoiceRequest{Number: "FV-X", Total: 999, Status: InvoiceVoid})
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, c.ID, PaymentRequest{Amount: 400})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stats.InvoiceCount)
	require.Equal(t, 1, stats.PaymentCount)
	require.Equal(t, 1250.5, stats.TotalInvoiced)
	require.Equal(t, 400.0, stats.TotalPaid)
	require.Equal(t, 850.5, stats.Outstanding)
}

func TestReadsCarryAccountBalance(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	ctx := context.Background()
	c := seedClient(t, svc, "1")
	other := seedClient(t, svc, "2")
	_, err := svc.CreateInvoice(ctx, c.ID, InvoiceRequest{Number: "FV-1", Total: 1000})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, c.ID, InvoiceRequest{Number: "FV-2", Total: 500, Status: InvoiceVoid})
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, c.ID, PaymentRequest{Amount: 300.25})
	require.NoError(t, err)

	want := Balance{InvoiceCount: 1, PaymentCount: 1, TotalInvoiced: 1000, TotalPaid: 300.25, Outstanding: 699.75}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, want, list[0].Balance)
	require.Equal(t, Balance{}, list[1].Balance)
	require.Equal(t, other.ID, list[1].ID)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, want, got.Balance)

	found, err := svc.Search(ctx, "Ferretería 1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, want, found[0].Balance)
}

func TestSearchFallsBackToListOnEmptyTerm(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	seedClient(t, svc, "900")
	seedClient(t, svc, "800")

	all, err := svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	require.Len(t, all, 2)

	found, err := svc.Search(context.Background(), "900")
	require.NoError(t, err)
	require.Len(t, found, 1)
}
