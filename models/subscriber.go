package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// SubscriptionStatus defines the set of allowed subscription states.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Frequency defines the delivery cadences a subscriber can choose.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Frequencies lists all tiers in the fixed order a dispatch run processes them.
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly}

// Interval returns the minimum time between deliveries for the frequency.
func (f Frequency) Interval() time.Duration {
	if f == FrequencyWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// Subscriber represents a recipient record. Subscribers are keyed by email
// address and are never deleted by the engine; only status and frequency
// change after provisioning.
type Subscriber struct {
	Email          string             `json:"email"`
	Name           string             `json:"name"`
	Status         SubscriptionStatus `json:"status"`
	Frequency      Frequency          `json:"frequency"`
	CreatedAt      time.Time          `json:"created_at"`
	LastDeliveryAt *time.Time         `json:"last_delivery_at,omitempty"`
}

// IsValidSubscriptionStatus checks if the provided string is a valid status.
// It returns the typed status and true if valid.
func IsValidSubscriptionStatus(statusStr string) (SubscriptionStatus, bool) {
	s := SubscriptionStatus(strings.ToLower(statusStr))
	switch s {
	case SubscriptionActive, SubscriptionInactive:
		return s, true
	default:
		return "", false
	}
}

// IsValidFrequency checks if the provided string is a valid frequency tier.
// It returns the typed frequency and true if valid.
func IsValidFrequency(freqStr string) (Frequency, bool) {
	f := Frequency(strings.ToLower(freqStr))
	switch f {
	case FrequencyDaily, FrequencyWeekly:
		return f, true
	default:
		return "", false
	}
}

// Validate rejects malformed records at the directory boundary so ambiguity
// never propagates downstream.
func (s *Subscriber) Validate() error {
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return fmt.Errorf("invalid subscriber email %q: %w", s.Email, err)
	}
	if _, ok := IsValidSubscriptionStatus(string(s.Status)); !ok {
		return fmt.Errorf("invalid subscription status %q", s.Status)
	}
	if _, ok := IsValidFrequency(string(s.Frequency)); !ok {
		return fmt.Errorf("invalid frequency %q", s.Frequency)
	}
	return nil
}
