package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"soak_console/internal/models"
	"soak_console/internal/repository"
)

type EventLogService struct {
	commands repository.CommandRepo
}

func NewEventLogService(commands repository.CommandRepo) *EventLogService {
	return &EventLogService{commands: commands}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	ErrUnknownEventType = errors.New("unknown event type")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) (string, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	switch s {
	case "", models.EventDispatched, models.EventDispatchFailed, models.EventDenied, models.EventEditReverted:
		return s, nil
	}
	return "", ErrUnknownEventType
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType, err := normalizeEventType(f.Type)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	return from, to, eventType, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.CommandEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.commands.List(ctx, from, to, typ)
}
