package community

import (
	"context"
	"fmt"
	"time"

	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, caller domain.Caller, req domain.CreateCommunityRequest) (*domain.Community, error)
	Get(ctx context.Context, communityID string) (*domain.Community, error)
	List(ctx context.Context) ([]domain.Community, error)
	Update(ctx context.Context, caller domain.Caller, communityID string, req domain.UpdateCommunityRequest) (*domain.Community, error)
}

type communityStore interface {
	Put(ctx context.Context, c *domain.Community) error
	Get(ctx context.Context, communityID string) (*domain.Community, error)
	Scan(ctx context.Context) ([]domain.Community, error)
	Update(ctx context.Context, communityID string, updates map[string]interface{}) error
}

type service struct {
	repo        communityStore
	mapBoxMapID string
	mapBoxToken string
}

func NewService(repo communityStore, mapBoxMapID, mapBoxToken string) Service {
	return &service{repo: repo, mapBoxMapID: mapBoxMapID, mapBoxToken: mapBoxToken}
}

func (s *service) Create(ctx context.Context, caller domain.Caller, req domain.CreateCommunityRequest) (*domain.Community, error) {
	if !domain.ModsOrAdmins(caller.Role) {
		return nil, fmt.Errorf("create community: %w", domain.ErrNotAuthorized)
	}
	now := time.Now().UTC()
	zoom := req.Zoom
	if zoom == 0 {
		zoom = 12
	}
	c := &domain.Community{
		CommunityID: id.New(),
		Name:        req.Name,
		OwnerID:     caller.ID,
		PictureID:   req.PictureID,
		Website:     req.Website,
		Coordinates: req.Coordinates,
		Zoom:        zoom,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	s.decorate(c)
	return c, nil
}

func (s *service) Get(ctx context.Context, communityID string) (*domain.Community, error) {
	c, err := s.repo.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	s.decorate(c)
	return c, nil
}

func (s *service) List(ctx context.Context) ([]domain.Community, error) {
	cs, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cs {
		s.decorate(&cs[i])
	}
	return cs, nil
}

func (s *service) Update(ctx context.Context, caller domain.Caller, communityID string, req domain.UpdateCommunityRequest) (*domain.Community, error) {
	c, err := s.repo.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !domain.OwnerOrModsOrAdmins(caller.ID, caller.Role, c.OwnerID) {
		return nil, fmt.Errorf("update community %s: %w", communityID, domain.ErrNotAuthorized)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.PictureID != nil {
		updates["picture_id"] = *req.PictureID
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if len(req.Coordinates) == 2 {
		updates["coordinates"] = req.Coordinates
	}
	if req.Zoom != nil {
		updates["zoom"] = *req.Zoom
	}
	if req.Count != nil {
		updates["count"] = *req.Count
	}
	if len(updates) == 0 {
		s.decorate(c)
		return c, nil
	}
	if err := s.repo.Update(ctx, communityID, updates); err != nil {
		return nil, err
	}
	c, err = s.repo.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	s.decorate(c)
	return c, nil
}

// decorate fills the derived tile URL from the MapBox settings.
func (s *service) decorate(c *domain.Community) {
	if s.mapBoxMapID == "" {
		return
	}
	c.MapURL = fmt.Sprintf("https://api.tiles.mapbox.com/v4/%s/{z}/{x}/{y}.png?access_token=%s",
		s.mapBoxMapID, s.mapBoxToken)
}
