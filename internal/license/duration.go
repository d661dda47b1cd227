// Package license holds the key-issuance and status-derivation core: named
// issuance durations, activation key generation, and the rule that computes a
// device's displayed status from its stored fields at read time.
package license

import (
	"errors"
	"time"
)

// Duration is a named issuance period mapped to an expiry offset.
type Duration string

const (
	DurationOneDay    Duration = "1day"
	DurationThreeDays Duration = "3days"
	DurationOneMonth  Duration = "1month"
	DurationSixMonths Duration = "6months"
	DurationTwoYears  Duration = "2years"
	DurationForever   Duration = "forever"
)

// ErrInvalidDuration is returned for a duration outside the known set.
var ErrInvalidDuration = errors.New("invalid key duration")

const day = 24 * time.Hour

// offsets maps each finite duration to its expiry offset. Months are nominal
// 30-day months, years nominal 365-day years (so 2years is 730 days).
var offsets = map[Duration]time.Duration{
	DurationOneDay:    day,
	DurationThreeDays: 3 * day,
	DurationOneMonth:  30 * day,
	DurationSixMonths: 180 * day,
	DurationTwoYears:  730 * day,
}

// ParseDuration validates s against the known duration set.
func ParseDuration(s string) (Duration, error) {
	d := Duration(s)
	if d == DurationForever {
		return d, nil
	}
	if _, ok := offsets[d]; !ok {
		return "", ErrInvalidDuration
	}
	return d, nil
}

// ExpiryFrom returns the expiry timestamp for a key issued at now with the
// given duration. DurationForever yields nil (the key never expires).
// Returns ErrInvalidDuration for an unknown duration.
func ExpiryFrom(now time.Time, d Duration) (*time.Time, error) {
	if d == DurationForever {
		return nil, nil
	}
	offset, ok := offsets[d]
	if !ok {
		return nil, ErrInvalidDuration
	}
	exp := now.Add(offset)
	return &exp, nil
}
