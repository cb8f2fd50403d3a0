package models

import (
	"testing"
	"time"
)

func TestIsValidSubscriptionStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want SubscriptionStatus
		ok   bool
	}{
		{"active", SubscriptionActive, true},
		{"inactive", SubscriptionInactive, true},
		{"ACTIVE", SubscriptionActive, true},
		{"paused", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := IsValidSubscriptionStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("IsValidSubscriptionStatus(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsValidFrequency(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Frequency
		ok   bool
	}{
		{"daily", FrequencyDaily, true},
		{"weekly", FrequencyWeekly, true},
		{"Weekly", FrequencyWeekly, true},
		{"monthly", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := IsValidFrequency(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("IsValidFrequency(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFrequencyInterval(t *testing.T) {
	t.Parallel()

	if got := FrequencyDaily.Interval(); got != 24*time.Hour {
		t.Errorf("daily interval = %v", got)
	}
	if got := FrequencyWeekly.Interval(); got != 7*24*time.Hour {
		t.Errorf("weekly interval = %v", got)
	}
}

func TestSubscriberValidate(t *testing.T) {
	t.Parallel()

	valid := Subscriber{
		Email:     "ada@example.com",
		Name:      "Ada",
		Status:    SubscriptionActive,
		Frequency: FrequencyDaily,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid subscriber rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Subscriber)
	}{
		{"empty email", func(s *Subscriber) { s.Email = "" }},
		{"malformed email", func(s *Subscriber) { s.Email = "not-an-address" }},
		{"unknown status", func(s *Subscriber) { s.Status = "paused" }},
		{"unknown frequency", func(s *Subscriber) { s.Frequency = "hourly" }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := valid
			tc.mut(&s)
			if err := s.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
