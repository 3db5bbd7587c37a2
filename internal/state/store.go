package state

import (
	"sync"

	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/device"
	"github.com/techposts/ambisense-bridge/internal/logging"
)

// Store holds the last-known-good snapshot and the availability flag.
//
// Merge applies the reconciliation rules for one poll cycle. A failed
// fetch never partially overwrites the snapshot: settings are carried
// forward verbatim when the settings fetch fails, and distance retains
// its previous value when the distance fetch fails. Reads always return
// the last-known snapshot, even while the device is unavailable, so
// consumers render stale-but-present data instead of errors.
type Store struct {
	mu        sync.RWMutex
	snapshot  Snapshot
	available bool
	// seenDistance tracks whether any distance reading has ever succeeded.
	// Until then a failed distance fetch falls back to 0 rather than
	// carrying forward a value that never existed.
	seenDistance bool
	host         string
}

// NewStore creates a store with an empty startup snapshot. The snapshot
// is rebuilt from the device on the first poll cycle.
func NewStore(host string) *Store {
	return &Store{
		snapshot: EmptySnapshot(),
		host:     host,
	}
}

// Snapshot returns the current snapshot. Non-blocking; safe for
// concurrent use.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Available reports whether the last poll cycle reached the device.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Merge reconciles one poll cycle's results into the snapshot.
//
// distance and settings are nil when the corresponding fetch failed.
// Rules:
//  1. Both nil: the previous snapshot stays externally visible, the
//     availability flag flips false, and a DeviceUnreachable error is
//     returned.
//  2. settings nil, distance present: settings fields are carried forward
//     unchanged; only distance updates.
//  3. settings present: the fully resolved Settings (defaults already
//     substituted for absent wire keys) replace the previous settings.
//  4. distance nil: the previous reading is retained and marked stale;
//     0 is used only when no reading has ever succeeded. This deviates
//     from firmware-era behavior that always substituted 0, which made
//     a brief sensor dropout look like an object at zero range.
//  5. On any success the availability flag is set true.
func (s *Store) Merge(distance *int, settings *Settings) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if distance == nil && settings == nil {
		s.available = false
		logging.Warn("Device unreachable, keeping previous snapshot",
			zap.String("host", s.host))
		return s.snapshot, device.NewUnreachableError(s.host)
	}

	next := s.snapshot

	if settings != nil {
		next.Settings = *settings
	}

	if distance != nil {
		next.DistanceCm = *distance
		s.seenDistance = true
	} else if !s.seenDistance {
		next.DistanceCm = 0
	}

	s.snapshot = next
	s.available = true
	return next, nil
}
