package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ar3/our-gruuv-sub016/modules/people/domain/aggregates/teammate"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/eventbus"
	"github.com/ar3/our-gruuv-sub016/pkg/serrors"
)

var ErrTeammateInvalid = serrors.NewError("TEAMMATE_INVALID", "display name and email are required", "")

type TeammateService struct {
	repo      teammate.Repository
	publisher eventbus.EventBus
}

func NewTeammateService(repo teammate.Repository, publisher eventbus.EventBus) *TeammateService {
	return &TeammateService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *TeammateService) GetByID(ctx context.Context, id uuid.UUID) (teammate.Teammate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TeammateService) GetPaginated(ctx context.Context, params *teammate.FindParams) ([]teammate.Teammate, int64, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *TeammateService) Create(ctx context.Context, displayName, email string) (teammate.Teammate, error) {
	if strings.TrimSpace(displayName) == "" || strings.TrimSpace(email) == "" {
		return teammate.Teammate{}, ErrTeammateInvalid
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}

	created, err := s.repo.Create(ctx, teammate.New(tenantID, displayName, email))
	if err != nil {
		return teammate.Teammate{}, err
	}
	s.publisher.Publish("teammate.created", created)
	return created, nil
}

func (s *TeammateService) Deactivate(ctx context.Context, id uuid.UUID) (teammate.Teammate, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return teammate.Teammate{}, err
	}
	updated, err := s.repo.Update(ctx, current.Deactivated())
	if err != nil {
		return teammate.Teammate{}, err
	}
	s.publisher.Publish("teammate.deactivated", updated)
	return updated, nil
}
