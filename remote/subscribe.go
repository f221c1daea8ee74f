package remote

import (
	"context"
	"sync"

	"github.com/Nathino/UQRCODE/model"

	"github.com/rs/zerolog/log"
)

// SnapshotFunc receives a full ordered snapshot of a user's QR codes.
type SnapshotFunc func([]model.SavedQRCode)

// ErrorFunc receives subscription errors that could not be resolved by
// the fetch-and-deliver fallback.
type ErrorFunc func(error)

// Subscribe delivers a full ordered snapshot on every change to the
// user's QR codes, starting with one immediate snapshot. When the
// pub/sub transport fails, a one-shot fetch-and-deliver fallback runs
// before onError is invoked, so the subscriber always saw the freshest
// data the store could provide. The returned function stops future
// deliveries; it does not abort an in-flight snapshot fetch.
//
// Snapshots are eventually consistent: a delivery may not yet reflect a
// write just issued by the same session.
func (s *Store) Subscribe(ctx context.Context, userID string, onChange SnapshotFunc, onError ErrorFunc) func() {
	sub := s.rdb.Subscribe(ctx, changeChanPrefix+userID)
	done := make(chan struct{})

	deliver := func() error {
		snapshot, err := s.GetUserQRCodes(ctx, userID)
		if err != nil {
			return err
		}
		onChange(snapshot)
		return nil
	}

	go func() {
		// Initial snapshot so subscribers start from current state.
		if err := deliver(); err != nil {
			log.Warn().Err(err).Str("userID", userID).Msg("Initial subscription snapshot failed")
			if onError != nil {
				onError(err)
			}
		}

		ch := sub.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					// Transport gone: one-shot fallback, then report.
					if err := deliver(); err != nil && onError != nil {
						onError(err)
					}
					log.Warn().Str("userID", userID).Msg("Change subscription channel closed")
					return
				}
				if err := deliver(); err != nil {
					log.Warn().Err(err).Str("userID", userID).Msg("Snapshot delivery failed")
					if onError != nil {
						onError(err)
					}
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				log.Warn().Err(err).Str("userID", userID).Msg("Failed to close subscription")
			}
		})
	}
}
