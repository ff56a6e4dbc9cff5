// Package events emits scanner domain events to the message broker.
// Emission is best effort: a broker outage must never fail a detection
// or an enrollment, so failures are logged and swallowed here.
package events

import (
	"context"
	"time"

	"github.com/licenseguard/licenseguard-backend/internal/scanner/domain"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
	"github.com/licenseguard/licenseguard-backend/pkg/messaging"
)

// Publisher publishes events to the message broker
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Emitter provides typed emission for scanner events
type Emitter struct {
	publisher Publisher
	log       *logger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, log *logger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		log:       log.WithComponent("events"),
	}
}

// CardDetected emits an event for a card crop that passed the confidence gate
func (e *Emitter) CardDetected(ctx context.Context, cropPath string, confidence float64, source string) {
	e.emit(ctx, messaging.EventCardDetected, messaging.CardDetectedEvent{
		CropPath:   cropPath,
		Confidence: confidence,
		Source:     source,
	})
}

// LicenseVerified emits an event for a completed verification
func (e *Emitter) LicenseVerified(ctx context.Context, dlNumber string, isValid, existsInDB bool, outcome domain.Outcome) {
	e.emit(ctx, messaging.EventLicenseVerified, messaging.LicenseVerifiedEvent{
		DLNumber:   dlNumber,
		IsValid:    isValid,
		ExistsInDB: existsInDB,
		Outcome:    string(outcome),
	})
}

// LicenseEnrolled emits an event for a newly enrolled license
func (e *Emitter) LicenseEnrolled(ctx context.Context, rec *domain.LicenseRecord, enrolledBy string) {
	e.emit(ctx, messaging.EventLicenseEnrolled, messaging.LicenseEnrolledEvent{
		DLNumber:   rec.DLNumber,
		Name:       rec.Name,
		ValidTill:  rec.ValidTill.Format("2006-01-02"),
		EnrolledBy: enrolledBy,
		EnrolledAt: time.Now().UTC(),
	})
}

func (e *Emitter) emit(ctx context.Context, eventType string, data interface{}) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, eventType, data); err != nil {
		e.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
