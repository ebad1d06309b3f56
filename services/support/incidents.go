package support

import (
	"context"
	"encoding/json"
	"fmt"

	"bodima/models"

	"github.com/go-redis/redis/v8"
)

const incidentListKey = "confirmIncidents"

// IncidentLog keeps confirmation incidents where support can reach them.
// These are bookings with a completed payment and no confirmed reservation,
// so they must survive until a human resolves them.
type IncidentLog struct {
	Cache *redis.Client
}

// Record appends an incident to the log.
func (l *IncidentLog) Record(ctx context.Context, inc models.ConfirmIncident) error {
	data, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("failed to marshal incident: %w", err)
	}
	if err := l.Cache.RPush(ctx, incidentListKey, data).Err(); err != nil {
		return fmt.Errorf("failed to record incident: %w", err)
	}
	return nil
}

// List returns all recorded incidents, oldest first.
func (l *IncidentLog) List(ctx context.Context) ([]models.ConfirmIncident, error) {
	entries, err := l.Cache.LRange(ctx, incidentListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read incident log: %w", err)
	}
	incidents := make([]models.ConfirmIncident, 0, len(entries))
	for _, entry := range entries {
		var inc models.ConfirmIncident
		if err := json.Unmarshal([]byte(entry), &inc); err != nil {
			return nil, fmt.Errorf("failed to parse incident entry: %w", err)
		}
		incidents = append(incidents, inc)
	}
	return incidents, nil
}
