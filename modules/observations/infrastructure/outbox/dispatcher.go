package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/events"
	"github.com/ar3/our-gruuv-sub016/pkg/eventbus"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
)

type Dispatcher struct {
	bus eventbus.EventBusWithError
}

func NewDispatcher(bus eventbus.EventBusWithError) *Dispatcher {
	return &Dispatcher{bus: bus}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	_ = ctx
	if d == nil || d.bus == nil {
		return fmt.Errorf("observations outbox dispatcher: bus is nil")
	}

	switch msg.Meta.Topic {
	case events.TopicObservationPublishedV1:
		var ev events.ObservationPublishedV1
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("observations outbox dispatcher: decode payload: %w", err)
		}
		return d.bus.PublishE(&msg.Meta, &ev)
	case events.TopicMomentCreatedV1:
		var ev events.MomentCreatedV1
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("observations outbox dispatcher: decode payload: %w", err)
		}
		return d.bus.PublishE(&msg.Meta, &ev)
	default:
		return fmt.Errorf("observations outbox dispatcher: unsupported topic %q", msg.Meta.Topic)
	}
}
