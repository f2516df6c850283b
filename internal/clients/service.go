package clients

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paintworks/paintworks/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// PhoneRegion is the ISO region used to parse phone numbers written without a country code.
	PhoneRegion string
}

// Service coordinates client use cases.
type Service struct {
	repo        Repository
	audit       AuditPort
	phoneRegion string
	now         func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo Repository, audit AuditPort, cfg ServiceConfig) *Service {
	region := cfg.PhoneRegion
	if region == "" {
		region = shared.DefaultPhoneRegion
	}
	return &Service{repo: repo, audit: audit, phoneRegion: region, now: time.Now}
}

// List returns every client ordered by company name.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.List(ctx)
}

// Search matches the term against name, NIT, contact, email and city.
func (s *Service) Search(ctx context.Context, term string) ([]Client, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, term)
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) normalize(req ClientRequest) (Client, error) {
	c := Client{
		CompanyName: strings.TrimSpace(req.CompanyName),
		TaxID:       strings.TrimSpace(req.TaxID),
		Contact:     strings.TrimSpace(req.Contact),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
	}
	if c.CompanyName == "" {
		return Client{}, shared.InvalidArgument("nombre_empresa is required")
	}
	if c.TaxID == "" {
		return Client{}, shared.InvalidArgument("nit is required")
	}
	phone, err := shared.NormalizePhone(req.Phone, s.phoneRegion)
	if err != nil {
		return Client{}, err
	}
	c.Phone = phone
	return c, nil
}

// Create registers a client. Duplicate NITs are conflicts.
func (s *Service) Create(ctx context.Context, req ClientRequest) (Client, error) {
	c, err := s.normalize(req)
	if err != nil {
		return Client{}, err
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update replaces the client's fields.
func (s *Service) Update(ctx context.Context, id int64, req ClientRequest) (Client, error) {
	c, err := s.normalize(req)
	if err != nil {
		return Client{}, err
	}
	c.ID = id
	if err := s.repo.Update(ctx, c); err != nil {
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a client that has no invoices or payments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var deleted Client
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		invoices, err := repo.CountInvoices(ctx, id)
		if err != nil {
			return err
		}
		if invoices > 0 {
			return shared.Conflict("cliente %d has %d facturas", id, invoices)
		}
		payments, err := repo.CountPayments(ctx, id)
		if err != nil {
			return err
		}
		if payments > 0 {
			return shared.Conflict("cliente %d has %d pagos", id, payments)
		}
		deleted = c
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   shared.AuditActionDelete,
			Entity:   "clientes",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"nit": deleted.TaxID, "nombre_empresa": deleted.CompanyName},
		})
	}
	return nil
}

// Invoices lists the client's invoices, newest first.
func (s *Service) Invoices(ctx context.Context, clientID int64) ([]Invoice, error) {
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.Invoices(ctx, clientID)
}

// CreateInvoice bills a client.
func (s *Service) CreateInvoice(ctx context.Context, clientID int64, req InvoiceRequest) (Invoice, error) {
	date, err := s.parseDate(req.Date)
	if err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		ClientID: clientID,
		Number:   strings.TrimSpace(req.Number),
		Date:     date,
		Total:    shared.RoundCents(req.Total),
		Status:   req.Status,
	}
	if inv.Number == "" {
		return Invoice{}, shared.InvalidArgument("numero is required")
	}
	if req.Total < 0 || req.Total != shared.Num(req.Total) {
		return Invoice{}, shared.InvalidArgument("total must be a finite number >= 0")
	}
	if inv.Status == "" {
		inv.Status = InvoicePending
	}
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return Invoice{}, err
	}
	id, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return s.repo.GetInvoice(ctx, id)
}

// Payments lists the client's payments, newest first.
func (s *Service) Payments(ctx context.Context, clientID int64) ([]Payment, error) {
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.Payments(ctx, clientID)
}

// CreatePayment records money received. A referenced invoice must belong to the same client.
func (s *Service) CreatePayment(ctx context.Context, clientID int64, req PaymentRequest) (Payment, error) {
	if req.Amount <= 0 || req.Amount != shared.Num(req.Amount) {
		return Payment{}, shared.InvalidArgument("monto must be a finite number greater than 0")
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return Payment{}, err
	}
	p := Payment{
		ClientID:  clientID,
		InvoiceID: req.InvoiceID,
		Date:      date,
		Amount:    shared.RoundCents(req.Amount),
		Method:    strings.TrimSpace(req.Method),
	}
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return Payment{}, err
	}
	if p.InvoiceID != nil {
		inv, err := s.repo.GetInvoice(ctx, *p.InvoiceID)
		if err != nil {
			return Payment{}, err
		}
		if inv.ClientID != clientID {
			return Payment{}, shared.InvalidArgument("factura %d does not belong to cliente %d", inv.ID, clientID)
		}
	}
	id, err := s.repo.CreatePayment(ctx, p)
	if err != nil {
		return Payment{}, fmt.Errorf("create payment: %w", err)
	}
	p.ID = id
	return p, nil
}

// Stats aggregates invoices and payments of a client.
func (s *Service) Stats(ctx context.Context, clientID int64) (Stats, error) {
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return Stats{}, err
	}
	var invoiced, paid Totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoiced, err = s.repo.InvoiceTotals(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		paid, err = s.repo.PaymentTotals(gctx, clientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("client stats: %w", err)
	}
	return Stats{
		ClientID:      clientID,
		InvoiceCount:  invoiced.Count,
		PaymentCount:  paid.Count,
		TotalInvoiced: invoiced.Sum,
		TotalPaid:     paid.Sum,
		Outstanding:   shared.RoundCents(invoiced.Sum - paid.Sum),
		LastInvoice:   invoiced.Last,
		LastPayment:   paid.Last,
	}, nil
}

func (s *Service) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := s.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, shared.InvalidArgument("fecha must be YYYY-MM-DD, got %q", raw)
	}
	return t, nil
}
