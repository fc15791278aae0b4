package catalog

import (
	"context"
	"fmt"

	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/id"
)

type Service interface {
	ListParentCategories(ctx context.Context) ([]domain.ParentCategory, error)
	GetParentCategory(ctx context.Context, id string) (*domain.ParentCategory, error)
	CreateParentCategory(ctx context.Context, caller domain.Caller, in domain.ParentCategoryInput) (*domain.ParentCategory, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListCategoriesByParent(ctx context.Context, parentID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, caller domain.Caller, in domain.CategoryInput) (*domain.Category, error)

	ListStatusTypes(ctx context.Context) ([]domain.StatusType, error)
	GetStatusType(ctx context.Context, id string) (*domain.StatusType, error)
	CreateStatusType(ctx context.Context, caller domain.Caller, in domain.StatusTypeInput) (*domain.StatusType, error)
	UpdateStatusType(ctx context.Context, caller domain.Caller, id string, in domain.StatusTypeInput) (*domain.StatusType, error)
	DeleteStatusType(ctx context.Context, caller domain.Caller, id string) error
}

type catalogStore interface {
	PutParentCategory(ctx context.Context, pc *domain.ParentCategory) error
	GetParentCategory(ctx context.Context, id string) (*domain.ParentCategory, error)
	ScanParentCategories(ctx context.Context) ([]domain.ParentCategory, error)

	PutCategory(ctx context.Context, c *domain.Category) error
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ScanCategories(ctx context.Context) ([]domain.Category, error)
	ListCategoriesByParent(ctx context.Context, parentID string) ([]domain.Category, error)

	PutStatusType(ctx context.Context, st *domain.StatusType) error
	GetStatusType(ctx context.Context, id string) (*domain.StatusType, error)
	ScanStatusTypes(ctx context.Context) ([]domain.StatusType, error)
	DeleteStatusType(ctx context.Context, id string) error
}

type service struct {
	repo catalogStore
}

func NewService(repo catalogStore) Service {
	return &service{repo: repo}
}

func requireAdmin(caller domain.Caller, op string) error {
	if caller.Role != domain.RoleAdmin {
		return fmt.Errorf("%s: %w", op, domain.ErrNotAuthorized)
	}
	return nil
}

// ── Parent categories ──────────────────────────────────────────────────────

func (s *service) ListParentCategories(ctx context.Context) ([]domain.ParentCategory, error) {
	return s.repo.ScanParentCategories(ctx)
}

func (s *service) GetParentCategory(ctx context.Context, pcID string) (*domain.ParentCategory, error) {
	return s.repo.GetParentCategory(ctx, pcID)
}

func (s *service) CreateParentCategory(ctx context.Context, caller domain.Caller, in domain.ParentCategoryInput) (*domain.ParentCategory, error) {
	if err := requireAdmin(caller, "create parent category"); err != nil {
		return nil, err
	}
	pc := &domain.ParentCategory{ParentCategoryID: id.New(), Name: in.Name}
	if err := s.repo.PutParentCategory(ctx, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// ── Categories ─────────────────────────────────────────────────────────────

func (s *service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ScanCategories(ctx)
}

func (s *service) ListCategoriesByParent(ctx context.Context, parentID string) ([]domain.Category, error) {
	return s.repo.ListCategoriesByParent(ctx, parentID)
}

func (s *service) GetCategory(ctx context.Context, cID string) (*domain.Category, error) {
	return s.repo.GetCategory(ctx, cID)
}

func (s *service) CreateCategory(ctx context.Context, caller domain.Caller, in domain.CategoryInput) (*domain.Category, error) {
	if err := requireAdmin(caller, "create category"); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetParentCategory(ctx, in.Parent); err != nil {
		return nil, fmt.Errorf("parent category %s: %w", in.Parent, err)
	}
	c := &domain.Category{
		CategoryID: id.New(),
		Parent:     in.Parent,
		Name:       in.Name,
		IconClass:  in.IconClass,
	}
	if err := s.repo.PutCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ── Status types ───────────────────────────────────────────────────────────

func (s *service) ListStatusTypes(ctx context.Context) ([]domain.StatusType, error) {
	return s.repo.ScanStatusTypes(ctx)
}

func (s *service) GetStatusType(ctx context.Context, stID string) (*domain.StatusType, error) {
	return s.repo.GetStatusType(ctx, stID)
}

func (s *service) CreateStatusType(ctx context.Context, caller domain.Caller, in domain.StatusTypeInput) (*domain.StatusType, error) {
	if err := requireAdmin(caller, "create status type"); err != nil {
		return nil, err
	}
	colour := domain.SanitizeHexColour(in.HexColour)
	if colour == "" {
		return nil, fmt.Errorf("invalid hex colour %q: %w", in.HexColour, domain.ErrBadRequest)
	}
	st := &domain.StatusType{StatusTypeID: id.New(), Name: in.Name, HexColour: colour}
	if err := s.repo.PutStatusType(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) UpdateStatusType(ctx context.Context, caller domain.Caller, stID string, in domain.StatusTypeInput) (*domain.StatusType, error) {
	if err := requireAdmin(caller, "update status type"); err != nil {
		return nil, err
	}
	st, err := s.repo.GetStatusType(ctx, stID)
	if err != nil {
		return nil, err
	}
	colour := domain.SanitizeHexColour(in.HexColour)
	if colour == "" {
		return nil, fmt.Errorf("invalid hex colour %q: %w", in.HexColour, domain.ErrBadRequest)
	}
	st.Name = in.Name
	st.HexColour = colour
	if err := s.repo.PutStatusType(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) DeleteStatusType(ctx context.Context, caller domain.Caller, stID string) error {
	if err := requireAdmin(caller, "delete status type"); err != nil {
		return err
	}
	return s.repo.DeleteStatusType(ctx, stID)
}
