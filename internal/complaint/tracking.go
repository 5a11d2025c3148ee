package complaint

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const (
	trackingPrefix     = "MIB"
	trackingRandLen    = 8
	trackingAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxTrackingRetries = 100
)

var trackingPattern = regexp.MustCompile(`^MIB[A-Z0-9]{8}$`)

// ValidTrackingID reports whether s looks like a tracking ID issued by
// this system. Used to reject junk lookups before hitting the store.
func ValidTrackingID(s string) bool {
	return trackingPattern.MatchString(s)
}

func randomTrackingID() (string, error) {
	buf := make([]byte, trackingRandLen)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingAlphabet))))
		if err != nil {
			return "", fmt.Errorf("tracking id entropy: %w", err)
		}
		buf[i] = trackingAlphabet[n.Int64()]
	}
	return trackingPrefix + string(buf), nil
}

// newTrackingID generates an ID not yet present in the store. After
// maxTrackingRetries collisions it falls back to a timestamp-derived
// ID, which is unique enough at this system's submission rate.
func newTrackingID(ctx context.Context, repo Repository, now time.Time) (string, error) {
	for i := 0; i < maxTrackingRetries; i++ {
		id, err := randomTrackingID()
		if err != nil {
			return "", err
		}
		_, err = repo.GetByTrackingID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("tracking id collision check: %w", err)
		}
	}
	return fmt.Sprintf("%s%08d", trackingPrefix, now.UnixNano()%100000000), nil
}
