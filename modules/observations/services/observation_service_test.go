package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/aggregates/observation"
	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/entities/moment"
	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/events"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/constants"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
	"github.com/ar3/our-gruuv-sub016/pkg/repo"
)

// stubTx satisfies the repository query surface; the in-memory fakes never
// touch it.
type stubTx struct{}

func (stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func passThroughTx(t *testing.T) {
	t.Helper()
	prev := runInTenantTx
	runInTenantTx = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(context.WithValue(ctx, constants.TxKey, stubTx{}))
	}
	t.Cleanup(func() { runInTenantTx = prev })
}

type fakeObservationRepo struct {
	byID map[uuid.UUID]observation.Observation
}

func newFakeObservationRepo() *fakeObservationRepo {
	return &fakeObservationRepo{byID: map[uuid.UUID]observation.Observation{}}
}

func (f *fakeObservationRepo) GetByID(ctx context.Context, id uuid.UUID) (observation.Observation, error) {
	o, ok := f.byID[id]
	if !ok {
		return observation.Observation{}, observation.ErrNotFound
	}
	return o, nil
}

func (f *fakeObservationRepo) Create(ctx context.Context, o observation.Observation) (observation.Observation, error) {
	created := observation.Hydrate(
		o.TenantID(), uuid.New(), o.ObserverID(), o.ObserveeIDs(),
		o.Kind(), o.Story(), o.Privacy(), nil, time.Now(), time.Now(),
	)
	f.byID[created.ID()] = created
	return created, nil
}

func (f *fakeObservationRepo) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) (observation.Observation, error) {
	o, ok := f.byID[id]
	if !ok {
		return observation.Observation{}, observation.ErrNotFound
	}
	published, err := o.Published(at)
	if err != nil {
		return observation.Observation{}, err
	}
	f.byID[id] = published
	return published, nil
}

type fakeMomentRepo struct {
	byID map[uuid.UUID]moment.Moment
}

func newFakeMomentRepo() *fakeMomentRepo {
	return &fakeMomentRepo{byID: map[uuid.UUID]moment.Moment{}}
}

func (f *fakeMomentRepo) GetByID(ctx context.Context, id uuid.UUID) (moment.Moment, error) {
	m, ok := f.byID[id]
	if !ok {
		return moment.Moment{}, moment.ErrNotFound
	}
	return m, nil
}

func (f *fakeMomentRepo) Create(ctx context.Context, m moment.Moment) (moment.Moment, error) {
	created := moment.Hydrate(m.TenantID(), uuid.New(), m.TeammateID(), m.MilestoneKind(), m.OccurredOn(), time.Now())
	f.byID[created.ID()] = created
	return created, nil
}

type fakeOutboxPublisher struct {
	messages []outbox.Message
}

func (f *fakeOutboxPublisher) Enqueue(ctx context.Context, tx repo.Tx, table pgx.Identifier, msg outbox.Message) (int64, error) {
	f.messages = append(f.messages, msg)
	return int64(len(f.messages)), nil
}

func TestObservationService_PublishEnqueuesEvent(t *testing.T) {
	passThroughTx(t)

	repo := newFakeObservationRepo()
	pub := &fakeOutboxPublisher{}
	svc := NewObservationService(repo, newFakeMomentRepo(), pub)

	tenantID := uuid.New()
	ctx := composables.WithTenantID(context.Background(), tenantID)

	created, err := svc.Create(ctx, CreateObservationInput{
		ObserverID:  uuid.New(),
		ObserveeIDs: []uuid.UUID{uuid.New(), uuid.New()},
		Kind:        observation.KindRecognition,
		Story:       "shipped the launch",
	})
	require.NoError(t, err)
	require.False(t, created.IsPublished())
	require.Empty(t, pub.messages, "creation must not enqueue anything")

	published, err := svc.Publish(ctx, created.ID())
	require.NoError(t, err)
	require.True(t, published.IsPublished())
	require.Len(t, pub.messages, 1)
	require.Equal(t, events.TopicObservationPublishedV1, pub.messages[0].Topic)
	require.Equal(t, tenantID, pub.messages[0].TenantID)
}

func TestObservationService_PublishTwiceFails(t *testing.T) {
	passThroughTx(t)

	repo := newFakeObservationRepo()
	pub := &fakeOutboxPublisher{}
	svc := NewObservationService(repo, newFakeMomentRepo(), pub)

	ctx := composables.WithTenantID(context.Background(), uuid.New())
	created, err := svc.Create(ctx, CreateObservationInput{
		ObserverID:  uuid.New(),
		ObserveeIDs: []uuid.UUID{uuid.New()},
		Kind:        observation.KindConstructive,
	})
	require.NoError(t, err)

	_, err = svc.Publish(ctx, created.ID())
	require.NoError(t, err)

	_, err = svc.Publish(ctx, created.ID())
	require.ErrorIs(t, err, observation.ErrAlreadyPublished)
	require.Len(t, pub.messages, 1, "a failed republish must not enqueue a second event")
}

func TestObservationService_CreateValidatesKindAndObservees(t *testing.T) {
	passThroughTx(t)

	svc := NewObservationService(newFakeObservationRepo(), newFakeMomentRepo(), &fakeOutboxPublisher{})
	ctx := composables.WithTenantID(context.Background(), uuid.New())

	_, err := svc.Create(ctx, CreateObservationInput{
		ObserverID: uuid.New(),
		Kind:       observation.KindRecognition,
	})
	require.ErrorIs(t, err, observation.ErrNoObservees)

	_, err = svc.Create(ctx, CreateObservationInput{
		ObserverID:  uuid.New(),
		ObserveeIDs: []uuid.UUID{uuid.New()},
		Kind:        observation.Kind("celebration"),
	})
	require.ErrorIs(t, err, observation.ErrUnknownKind)
}

func TestObservationService_RecordMomentEnqueuesEvent(t *testing.T) {
	passThroughTx(t)

	pub := &fakeOutboxPublisher{}
	svc := NewObservationService(newFakeObservationRepo(), newFakeMomentRepo(), pub)

	tenantID := uuid.New()
	ctx := composables.WithTenantID(context.Background(), tenantID)

	created, err := svc.RecordMoment(ctx, uuid.New(), "new_hire", time.Now())
	require.NoError(t, err)
	require.Equal(t, "new_hire", created.MilestoneKind())
	require.Len(t, pub.messages, 1)
	require.Equal(t, events.TopicMomentCreatedV1, pub.messages[0].Topic)

	_, err = svc.RecordMoment(ctx, uuid.New(), "  ", time.Now())
	require.ErrorIs(t, err, moment.ErrMilestoneBlank)
}
