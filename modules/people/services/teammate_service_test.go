package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ar3/our-gruuv-sub016/modules/people/domain/aggregates/teammate"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

type stubPublisher struct {
	events []interface{}
}

func (p *stubPublisher) Publish(args ...interface{}) { p.events = append(p.events, args...) }
func (p *stubPublisher) Subscribe(f interface{})     {}
func (p *stubPublisher) Unsubscribe(f interface{})   {}
func (p *stubPublisher) Clear()                      {}
func (p *stubPublisher) SubscribersCount() int       { return 0 }

type fakeTeammateRepo struct {
	byID map[uuid.UUID]teammate.Teammate
}

func newFakeTeammateRepo() *fakeTeammateRepo {
	return &fakeTeammateRepo{byID: map[uuid.UUID]teammate.Teammate{}}
}

func (f *fakeTeammateRepo) GetPaginated(ctx context.Context, params *teammate.FindParams) ([]teammate.Teammate, int64, error) {
	out := make([]teammate.Teammate, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTeammateRepo) GetByID(ctx context.Context, id uuid.UUID) (teammate.Teammate, error) {
	t, ok := f.byID[id]
	if !ok {
		return teammate.Teammate{}, teammate.ErrNotFound
	}
	return t, nil
}

func (f *fakeTeammateRepo) GetByEmail(ctx context.Context, email string) (teammate.Teammate, error) {
	for _, t := range f.byID {
		if t.Email() == email {
			return t, nil
		}
	}
	return teammate.Teammate{}, teammate.ErrNotFound
}

func (f *fakeTeammateRepo) Create(ctx context.Context, t teammate.Teammate) (teammate.Teammate, error) {
	created := teammate.Hydrate(t.TenantID(), uuid.New(), t.DisplayName(), t.Email(), t.Status(), t.CreatedAt(), t.UpdatedAt())
	f.byID[created.ID()] = created
	return created, nil
}

func (f *fakeTeammateRepo) Update(ctx context.Context, t teammate.Teammate) (teammate.Teammate, error) {
	if _, ok := f.byID[t.ID()]; !ok {
		return teammate.Teammate{}, teammate.ErrNotFound
	}
	f.byID[t.ID()] = t
	return t, nil
}

func TestTeammateService_CreateRequiresNameAndEmail(t *testing.T) {
	svc := NewTeammateService(newFakeTeammateRepo(), &stubPublisher{})
	ctx := composables.WithTenantID(context.Background(), uuid.New())

	_, err := svc.Create(ctx, "  ", "jo@example.com")
	require.ErrorIs(t, err, ErrTeammateInvalid)

	_, err = svc.Create(ctx, "Jo", "")
	require.ErrorIs(t, err, ErrTeammateInvalid)
}

func TestTeammateService_CreateNormalizesAndPublishes(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewTeammateService(newFakeTeammateRepo(), pub)
	tenantID := uuid.New()
	ctx := composables.WithTenantID(context.Background(), tenantID)

	created, err := svc.Create(ctx, "  Jo Smith ", " JO@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "Jo Smith", created.DisplayName())
	require.Equal(t, "jo@example.com", created.Email())
	require.Equal(t, tenantID, created.TenantID())
	require.True(t, created.IsActive())
	require.Len(t, pub.events, 2) // topic + payload
}

func TestTeammateService_Deactivate(t *testing.T) {
	repo := newFakeTeammateRepo()
	svc := NewTeammateService(repo, &stubPublisher{})
	ctx := composables.WithTenantID(context.Background(), uuid.New())

	created, err := svc.Create(ctx, "Jo", "jo@example.com")
	require.NoError(t, err)

	updated, err := svc.Deactivate(ctx, created.ID())
	require.NoError(t, err)
	require.False(t, updated.IsActive())

	_, err = svc.Deactivate(ctx, uuid.New())
	require.ErrorIs(t, err, teammate.ErrNotFound)
}
