package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Nathino/UQRCODE/model"

	"github.com/go-redis/redis/v8"
)

// AppendScanEvent pushes one immutable event onto the user's log, most
// recent first, and trims the log to the retention cap.
func (s *Store) AppendScanEvent(ctx context.Context, ev model.ScanEvent) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	key := scanEventsPrefix + ev.UserID
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxScanEventsKept-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store scan event: %w", err)
	}
	return nil
}

// GetScanEvents returns the user's full event log, most recent first.
func (s *Store) GetScanEvents(ctx context.Context, userID string) ([]model.ScanEvent, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	raw, err := s.rdb.LRange(ctx, scanEventsPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch scan events: %w", err)
	}

	events := make([]model.ScanEvent, 0, len(raw))
	for _, item := range raw {
		var ev model.ScanEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// GetProfile fetches a user profile. ErrNotFound when absent.
func (s *Store) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.rdb.Get(ctx, profileKeyPrefix+uid).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	var p model.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

// PutProfile upserts a user profile, restamping UpdatedAt.
func (s *Store) PutProfile(ctx context.Context, p model.UserProfile) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.rdb.Set(ctx, profileKeyPrefix+p.UID, data, 0).Err(); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}
