package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/police-portal/platform/internal/shared/events"
	"github.com/police-portal/platform/internal/shared/types"
)

// Subscriber listens to domain events and creates audit entries
type Subscriber struct {
	repo *Repository
	bus  events.EventBus
}

// NewSubscriber creates a new audit subscriber
func NewSubscriber(repo *Repository, bus events.EventBus) *Subscriber {
	return &Subscriber{repo: repo, bus: bus}
}

// Start subscribes to all audited event families
func (s *Subscriber) Start(ctx context.Context) error {
	patterns := []struct {
		pattern      string
		consumerName string
	}{
		{"complaint.*", "audit-complaint-subscriber"},
		{"case.*", "audit-case-subscriber"},
		{"crime_scene.*", "audit-crime-scene-subscriber"},
		{"assignment.*", "audit-assignment-subscriber"},
		{"interrogation.*", "audit-interrogation-subscriber"},
		{"suspect.*", "audit-suspect-subscriber"},
		{"wanted.*", "audit-wanted-subscriber"},
		{"tip.*", "audit-tip-subscriber"},
		{"reward.*", "audit-reward-subscriber"},
		{"trial.*", "audit-trial-subscriber"},
	}

	for _, p := range patterns {
		if err := s.bus.Subscribe(ctx, p.pattern, p.consumerName, s.handleEvent); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", p.pattern, err)
		}
	}

	return nil
}

// handleEvent processes incoming events and creates audit entries
func (s *Subscriber) handleEvent(ctx context.Context, event events.Event) error {
	entry := s.eventToAuditEntry(event)
	if entry == nil {
		return nil
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// eventToAuditEntry converts a domain event to an audit entry
func (s *Subscriber) eventToAuditEntry(event events.Event) *AuditEntry {
	parts := strings.SplitN(event.Type, ".", 2)
	if len(parts) < 2 {
		return nil
	}

	resourceType := parts[0]
	action := event.Type

	// Extract resource ID from event data
	var resourceID *types.ID
	if data, ok := event.Data.(map[string]any); ok {
		idFields := []string{
			resourceType + "_id",
			"id",
		}
		for _, field := range idFields {
			if idVal, ok := data[field]; ok {
				if idStr, ok := idVal.(string); ok {
					if id, err := types.ParseID(idStr); err == nil {
						resourceID = &id
						break
					}
				}
				if id, ok := idVal.(types.ID); ok {
					resourceID = &id
					break
				}
			}
		}
	}

	var caseID *types.ID
	if !event.CaseID.IsZero() {
		id := event.CaseID
		caseID = &id
	}

	// Truncate timestamp to microseconds for deterministic hash verification
	entry := &AuditEntry{
		ID:            types.NewID(),
		Timestamp:     event.Timestamp.UTC().Truncate(time.Microsecond),
		ActorID:       event.ActorID,
		ActorRole:     event.ActorRole,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		CaseID:        caseID,
		CorrelationID: event.CorrelationID,
	}

	if data, ok := event.Data.(map[string]any); ok {
		entry.Changes = data
	}

	return entry
}
