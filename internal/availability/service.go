// Package availability wraps the backend's slot lookup with a short-lived
// Redis cache. Availability changes minute to minute, so entries are kept
// only long enough to absorb the repeated lookups a single reschedule
// session produces. The cache is an optimization: when Redis is down or
// absent the service falls through to the backend.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harborclinic/scheduling-core/internal/appointment"
	"github.com/harborclinic/scheduling-core/internal/observability/metrics"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

var tracer = otel.Tracer("scheduling.internal.availability")

const defaultTTL = 30 * time.Second

// Fetcher is the upstream slot source, normally the backend client.
type Fetcher interface {
	FetchAvailableSlots(ctx context.Context, doctorID string, date time.Time, appointmentType string) ([]appointment.Slot, error)
}

// Service is a read-through cache over a Fetcher.
type Service struct {
	fetcher Fetcher
	redis   *redis.Client
	ttl     time.Duration
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
}

// NewService creates an availability service. redisClient may be nil, in
// which case every lookup goes to the fetcher.
func NewService(fetcher Fetcher, redisClient *redis.Client, ttl time.Duration, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if fetcher == nil {
		panic("availability: fetcher cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		fetcher: fetcher,
		redis:   redisClient,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// AvailableSlots returns the slots for a doctor/date/type, serving from
// cache when a fresh entry exists.
func (s *Service) AvailableSlots(ctx context.Context, doctorID string, date time.Time, appointmentType string) ([]appointment.Slot, error) {
	ctx, span := tracer.Start(ctx, "availability.AvailableSlots")
	defer span.End()
	span.SetAttributes(
		attribute.String("doctor_id", doctorID),
		attribute.String("date", date.Format("2006-01-02")),
	)

	key := cacheKey(doctorID, date, appointmentType)

	if s.redis == nil {
		s.metrics.ObserveCache("bypass")
		return s.fetchAndStore(ctx, key, doctorID, date, appointmentType)
	}

	start := time.Now()
	cached, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var slots []appointment.Slot
		if jsonErr := json.Unmarshal([]byte(cached), &slots); jsonErr == nil {
			s.metrics.ObserveCache("hit")
			s.metrics.ObserveAvailabilityLatency("cache", time.Since(start).Seconds())
			return slots, nil
		}
		// A corrupt entry is treated as a miss and overwritten below.
		s.logger.Warn("dropping undecodable availability cache entry", "key", key)
	case err != redis.Nil:
		s.logger.Warn("availability cache read failed", "key", key, "error", err)
	}

	s.metrics.ObserveCache("miss")
	return s.fetchAndStore(ctx, key, doctorID, date, appointmentType)
}

// Invalidate drops the cached entry for a doctor/date/type, used after a
// confirmed reschedule changes the slot picture.
func (s *Service) Invalidate(ctx context.Context, doctorID string, date time.Time, appointmentType string) {
	if s.redis == nil {
		return
	}
	key := cacheKey(doctorID, date, appointmentType)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("availability cache invalidation failed", "key", key, "error", err)
	}
}

func (s *Service) fetchAndStore(ctx context.Context, key, doctorID string, date time.Time, appointmentType string) ([]appointment.Slot, error) {
	start := time.Now()
	slots, err := s.fetcher.FetchAvailableSlots(ctx, doctorID, date, appointmentType)
	if err != nil {
		return nil, fmt.Errorf("availability: fetch slots: %w", err)
	}
	s.metrics.ObserveAvailabilityLatency("backend", time.Since(start).Seconds())

	if s.redis != nil {
		payload, jsonErr := json.Marshal(slots)
		if jsonErr == nil {
			if setErr := s.redis.Set(ctx, key, payload, s.ttl).Err(); setErr != nil {
				s.logger.Warn("availability cache write failed", "key", key, "error", setErr)
			}
		}
	}
	return slots, nil
}

func cacheKey(doctorID string, date time.Time, appointmentType string) string {
	return fmt.Sprintf("availability:%s:%s:%s", doctorID, date.Format("2006-01-02"), appointmentType)
}
