package handlers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ar3/our-gruuv-sub016/modules/economy/services"
	obsevents "github.com/ar3/our-gruuv-sub016/modules/observations/domain/events"
	"github.com/ar3/our-gruuv-sub016/pkg/application"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
)

// ObservationEventsHandler posts points off the observation module's
// relayed events. Delivery is at-least-once; the transaction uniqueness in
// the posting engine makes replays no-ops.
type ObservationEventsHandler struct {
	pool   *pgxpool.Pool
	awards *services.AwardService
}

func RegisterObservationEventHandlers(app application.Application) {
	handler := &ObservationEventsHandler{
		pool:   app.DB(),
		awards: app.Service(services.AwardService{}).(*services.AwardService),
	}
	app.EventPublisher().Subscribe(handler.onObservationPublishedV1)
	app.EventPublisher().Subscribe(handler.onMomentCreatedV1)
}

func (h *ObservationEventsHandler) onObservationPublishedV1(meta *outbox.Meta, ev *obsevents.ObservationPublishedV1) error {
	if h == nil || h.awards == nil || meta == nil || ev == nil {
		return nil
	}
	return h.awards.PostObservationPoints(h.scope(meta), services.ObservationInput{
		TenantID:      ev.TenantID,
		ObservationID: ev.ObservationID,
		ObserverID:    ev.ObserverID,
		ObserveeIDs:   ev.ObserveeIDs,
		Kind:          ev.Kind,
	})
}

func (h *ObservationEventsHandler) onMomentCreatedV1(meta *outbox.Meta, ev *obsevents.MomentCreatedV1) error {
	if h == nil || h.awards == nil || meta == nil || ev == nil {
		return nil
	}
	return h.awards.PostCelebratoryAward(h.scope(meta), services.MomentInput{
		TenantID:      ev.TenantID,
		MomentID:      ev.MomentID,
		TeammateID:    ev.TeammateID,
		MilestoneKind: ev.MilestoneKind,
	})
}

// scope rebuilds the request-shaped context for relayed messages. Relayed
// work has no acting teammate, so the context carries the system mark the
// permission guard requires for actor-less calls.
func (h *ObservationEventsHandler) scope(meta *outbox.Meta) context.Context {
	ctx := composables.WithPool(context.Background(), h.pool)
	ctx = composables.WithSystemActor(ctx)
	return composables.WithTenantID(ctx, meta.TenantID)
}
