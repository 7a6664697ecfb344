package types

import "time"

// UserProfile is the document stored at users/{uid}. It is created once on
// first sign-in and never overwritten afterwards.
type UserProfile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	ProviderID  string    `json:"providerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DailySignups is one bucket of the admin sign-up chart.
type DailySignups struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
