package models

import (
	"math"
	"time"
)

// Confidence buckets a match score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Breakdown weights in percent. They add up to 100.
const (
	WeightSkills       = 50
	WeightAvailability = 20
	WeightRoleFit      = 10
	WeightIndustry     = 10
	WeightGeo          = 10
)

const (
	highConfidenceScore   = 85
	mediumConfidenceScore = 70
	percent               = 100
)

// Suggestion is a ranked candidate returned by the backend for a project.
type Suggestion struct {
	CandidateID int64            `json:"candidate_id"`
	Score       int              `json:"score"`
	Reason      string           `json:"reason"`
	Profile     *EmployeeProfile `json:"profile"`
	Breakdown   *MatchBreakdown  `json:"breakdown,omitempty"`
}

// Overall returns the backend score, or the weighted breakdown when the backend sent none.
func (s Suggestion) Overall() int {
	if s.Score == 0 && s.Breakdown != nil {
		return s.Breakdown.Weighted()
	}
	return s.Score
}

// MatchBreakdown scores a pairing across the five dimensions, each in 0..100.
type MatchBreakdown struct {
	Skills       int `json:"skills"`
	Availability int `json:"availability"`
	RoleFit      int `json:"role_fit"`
	Industry     int `json:"industry"`
	Geo          int `json:"geo"`
}

// Weighted combines the dimensions into an overall 0..100 score.
func (b MatchBreakdown) Weighted() int {
	sum := b.Skills*WeightSkills +
		b.Availability*WeightAvailability +
		b.RoleFit*WeightRoleFit +
		b.Industry*WeightIndustry +
		b.Geo*WeightGeo
	return int(math.Round(float64(sum) / percent))
}

// ConfidenceFor maps a score to its confidence bucket.
func ConfidenceFor(score int) Confidence {
	switch {
	case score >= highConfidenceScore:
		return ConfidenceHigh
	case score >= mediumConfidenceScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// NotificationType classifies backend notifications.
type NotificationType string

const (
	NotificationRollOff              NotificationType = "Roll-off Alert"
	NotificationProjectGap           NotificationType = "Project Gap"
	NotificationAllocationSuggestion NotificationType = "Allocation Suggestion"
)

// Notification is a message the backend raises for a user.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	UserID    int64            `json:"user_id"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// DashboardMetrics are the manager dashboard counters.
type DashboardMetrics struct {
	AvailableEngineers int `json:"availableEngineers"`
	ActiveProjects     int `json:"activeProjects"`
	RollingOffSoon     int `json:"rollingOffSoon"`
	BenchResources     int `json:"benchResources"`
	AllocatedEngineers int `json:"allocatedEngineers"`
}
