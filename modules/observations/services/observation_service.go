package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/aggregates/observation"
	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/entities/moment"
	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/events"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
)

// OutboxTable is where observation events are enqueued; the relay is
// configured against the same identifier.
var OutboxTable = pgx.Identifier{"public", "observations_outbox"}

// runInTenantTx is the unit-of-work seam; overridden in unit tests.
var runInTenantTx = composables.InTenantTx

type ObservationService struct {
	observations observation.Repository
	moments      moment.Repository
	outbox       outbox.Publisher
}

func NewObservationService(
	observations observation.Repository,
	moments moment.Repository,
	outboxPublisher outbox.Publisher,
) *ObservationService {
	return &ObservationService{
		observations: observations,
		moments:      moments,
		outbox:       outboxPublisher,
	}
}

type CreateObservationInput struct {
	ObserverID  uuid.UUID
	ObserveeIDs []uuid.UUID
	Kind        observation.Kind
	Story       string
	Privacy     observation.Privacy
}

func (s *ObservationService) Create(ctx context.Context, in CreateObservationInput) (observation.Observation, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return observation.Observation{}, err
	}

	draft, err := observation.New(tenantID, in.ObserverID, in.ObserveeIDs, in.Kind, in.Story, in.Privacy)
	if err != nil {
		return observation.Observation{}, err
	}

	var created observation.Observation
	err = runInTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.observations.Create(txCtx, draft)
		return innerErr
	})
	return created, err
}

func (s *ObservationService) GetByID(ctx context.Context, id uuid.UUID) (observation.Observation, error) {
	var found observation.Observation
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		found, innerErr = s.observations.GetByID(txCtx, id)
		return innerErr
	})
	return found, err
}

// Publish marks the observation published and enqueues the outbox event in
// the same transaction. The relay delivers it to the economy module with
// at-least-once semantics.
func (s *ObservationService) Publish(ctx context.Context, id uuid.UUID) (observation.Observation, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return observation.Observation{}, err
	}

	var published observation.Observation
	err = runInTenantTx(ctx, func(txCtx context.Context) error {
		o, innerErr := s.observations.MarkPublished(txCtx, id, time.Now())
		if innerErr != nil {
			return innerErr
		}

		ev := events.ObservationPublishedV1{
			EventID:       uuid.New(),
			EventVersion:  events.EventVersionV1,
			TenantID:      tenantID,
			ObservationID: o.ID(),
			ObserverID:    o.ObserverID(),
			ObserveeIDs:   o.ObserveeIDs(),
			Kind:          string(o.Kind()),
			PublishedAt:   *o.PublishedAt(),
		}
		if innerErr := s.enqueue(txCtx, tenantID, events.TopicObservationPublishedV1, ev.EventID, ev); innerErr != nil {
			return innerErr
		}
		published = o
		return nil
	})
	return published, err
}

// RecordMoment stores an observable moment and enqueues the event that
// triggers the celebratory award.
func (s *ObservationService) RecordMoment(ctx context.Context, teammateID uuid.UUID, milestoneKind string, occurredOn time.Time) (moment.Moment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return moment.Moment{}, err
	}

	draft, err := moment.New(tenantID, teammateID, milestoneKind, occurredOn)
	if err != nil {
		return moment.Moment{}, err
	}

	var created moment.Moment
	err = runInTenantTx(ctx, func(txCtx context.Context) error {
		m, innerErr := s.moments.Create(txCtx, draft)
		if innerErr != nil {
			return innerErr
		}

		ev := events.MomentCreatedV1{
			EventID:       uuid.New(),
			EventVersion:  events.EventVersionV1,
			TenantID:      tenantID,
			MomentID:      m.ID(),
			TeammateID:    m.TeammateID(),
			MilestoneKind: m.MilestoneKind(),
			OccurredOn:    m.OccurredOn(),
		}
		if innerErr := s.enqueue(txCtx, tenantID, events.TopicMomentCreatedV1, ev.EventID, ev); innerErr != nil {
			return innerErr
		}
		created = m
		return nil
	})
	return created, err
}

func (s *ObservationService) enqueue(ctx context.Context, tenantID uuid.UUID, topic string, eventID uuid.UUID, payload any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	_, err = s.outbox.Enqueue(ctx, tx, OutboxTable, outbox.Message{
		TenantID: tenantID,
		Topic:    topic,
		EventID:  eventID,
		Payload:  body,
	})
	return err
}
