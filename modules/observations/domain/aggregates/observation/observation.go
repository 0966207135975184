package observation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the feedback flavor; it drives which economy event key
// resolves the point amounts downstream.
type Kind string

const (
	KindRecognition  Kind = "recognition"
	KindConstructive Kind = "constructive"
)

type Privacy string

const (
	PrivacyPrivate Privacy = "private"
	PrivacyPublic  Privacy = "public"
)

var (
	ErrNoObservees      = errors.New("observation requires at least one observee")
	ErrAlreadyPublished = errors.New("observation is already published")
	ErrUnknownKind      = errors.New("unknown observation kind")
)

// Observation is a piece of feedback an observer records about one or more
// teammates. Publishing it is what makes it visible and point-bearing.
type Observation struct {
	tenantID    uuid.UUID
	id          uuid.UUID
	observerID  uuid.UUID
	observeeIDs []uuid.UUID
	kind        Kind
	story       string
	privacy     Privacy
	publishedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID, observerID uuid.UUID, observeeIDs []uuid.UUID, kind Kind, story string, privacy Privacy) (Observation, error) {
	if len(observeeIDs) == 0 {
		return Observation{}, ErrNoObservees
	}
	switch kind {
	case KindRecognition, KindConstructive:
	default:
		return Observation{}, ErrUnknownKind
	}
	if privacy == "" {
		privacy = PrivacyPrivate
	}
	return Observation{
		tenantID:    tenantID,
		observerID:  observerID,
		observeeIDs: append([]uuid.UUID(nil), observeeIDs...),
		kind:        kind,
		story:       strings.TrimSpace(story),
		privacy:     privacy,
	}, nil
}

func Hydrate(
	tenantID uuid.UUID,
	id uuid.UUID,
	observerID uuid.UUID,
	observeeIDs []uuid.UUID,
	kind Kind,
	story string,
	privacy Privacy,
	publishedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Observation {
	return Observation{
		tenantID:    tenantID,
		id:          id,
		observerID:  observerID,
		observeeIDs: append([]uuid.UUID(nil), observeeIDs...),
		kind:        kind,
		story:       story,
		privacy:     privacy,
		publishedAt: publishedAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (o Observation) TenantID() uuid.UUID      { return o.tenantID }
func (o Observation) ID() uuid.UUID            { return o.id }
func (o Observation) ObserverID() uuid.UUID    { return o.observerID }
func (o Observation) ObserveeIDs() []uuid.UUID { return append([]uuid.UUID(nil), o.observeeIDs...) }
func (o Observation) Kind() Kind               { return o.kind }
func (o Observation) Story() string            { return o.story }
func (o Observation) Privacy() Privacy         { return o.privacy }
func (o Observation) PublishedAt() *time.Time  { return o.publishedAt }
func (o Observation) IsPublished() bool        { return o.publishedAt != nil }
func (o Observation) CreatedAt() time.Time     { return o.createdAt }
func (o Observation) UpdatedAt() time.Time     { return o.updatedAt }

// Published returns a copy marked published at the given time.
func (o Observation) Published(at time.Time) (Observation, error) {
	if o.publishedAt != nil {
		return Observation{}, ErrAlreadyPublished
	}
	o.publishedAt = &at
	return o, nil
}
