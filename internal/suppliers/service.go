package suppliers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/paintworks/paintworks/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	PhoneRegion string
}

// Service coordinates supplier use cases.
type Service struct {
	repo        Repository
	audit       AuditPort
	phoneRegion string
}

// NewService builds Service. audit may be nil.
func NewService(repo Repository, audit AuditPort, cfg ServiceConfig) *Service {
	region := cfg.PhoneRegion
	if region == "" {
		region = shared.DefaultPhoneRegion
	}
	return &Service{repo: repo, audit: audit, phoneRegion: region}
}

// List returns every supplier.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

// Search matches the term against name, NIT, contact and city.
func (s *Service) Search(ctx context.Context, term string) ([]Supplier, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, term)
}

// Get returns one supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) normalize(req SupplierRequest, active bool) (Supplier, error) {
	sup := Supplier{
		CompanyName: strings.TrimSpace(req.CompanyName),
		TaxID:       strings.TrimSpace(req.TaxID),
		Contact:     strings.TrimSpace(req.Contact),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		Active:      active,
	}
	if req.Active != nil {
		sup.Active = *req.Active
	}
	if sup.CompanyName == "" || sup.TaxID == "" {
		return Supplier{}, shared.InvalidArgument("nombre_empresa and nit are required")
	}
	phone, err := shared.NormalizePhone(req.Phone, s.phoneRegion)
	if err != nil {
		return Supplier{}, err
	}
	sup.Phone = phone
	return sup, nil
}

// Create registers a supplier.
func (s *Service) Create(ctx context.Context, req SupplierRequest) (Supplier, error) {
	sup, err := s.normalize(req, true)
	if err != nil {
		return Supplier{}, err
	}
	id, err := s.repo.Create(ctx, sup)
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update replaces the supplier's fields. Active is kept when not sent.
func (s *Service) Update(ctx context.Context, id int64, req SupplierRequest) (Supplier, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Supplier{}, err
	}
	sup, err := s.normalize(req, current.Active)
	if err != nil {
		return Supplier{}, err
	}
	sup.ID = id
	if err := s.repo.Update(ctx, sup); err != nil {
		return Supplier{}, fmt.Errorf("update supplier: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a supplier whose catalogue is empty.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var deleted Supplier
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		sup, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := repo.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return shared.Conflict("proveedor %d has %d productos", id, n)
		}
		deleted = sup
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   shared.AuditActionDelete,
			Entity:   "proveedores",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"nit": deleted.TaxID, "nombre_empresa": deleted.CompanyName},
		})
	}
	return nil
}

// Products lists the supplier's catalogue.
func (s *Service) Products(ctx context.Context, id int64) ([]Product, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Products(ctx, id)
}

// Stats summarises the supplier's catalogue.
func (s *Service) Stats(ctx context.Context, id int64) (Stats, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Stats{}, err
	}
	stats := Stats{SupplierID: id}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.repo.Counts(gctx, id)
		stats.Counts = c
		return err
	})
	g.Go(func() error {
		p, err := s.repo.Prices(gctx, id)
		stats.Prices = p
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("supplier stats: %w", err)
	}
	stats.Average = shared.RoundCents(stats.Average)
	return stats, nil
}
