package domain

import "time"

type SiteID string

// SiteStatus is the checker's verdict for a monitored site.
type SiteStatus string

const (
	StatusUp          SiteStatus = "up"
	StatusDown        SiteStatus = "down"
	StatusUnknown     SiteStatus = "unknown"
	StatusMaintenance SiteStatus = "maintenance"
)

func (s SiteStatus) Valid() bool {
	switch s {
	case StatusUp, StatusDown, StatusUnknown, StatusMaintenance:
		return true
	}
	return false
}

// LogStatus is the outcome of a single check. It is finer than SiteStatus
// on the failure side.
type LogStatus string

const (
	LogUp      LogStatus = "up"
	LogDown    LogStatus = "down"
	LogTimeout LogStatus = "timeout"
	LogError   LogStatus = "error"
)

type MonitoredSite struct {
	ID                 SiteID     `json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Name               string     `json:"name"`
	URL                string     `json:"url"`
	Description        *string    `json:"description"`
	Country            string     `json:"country"`
	Region             *string    `json:"region"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	CheckInterval      int        `json:"check_interval"`
	TimeoutSeconds     int        `json:"timeout_seconds"`
	ExpectedStatusCode int        `json:"expected_status_code"`
	Status             SiteStatus `json:"status"`
	LastCheckedAt      *time.Time `json:"last_checked_at"`
	LastResponseTime   *float64   `json:"last_response_time"` // ms
	LastError          *string    `json:"last_error"`
	Tags               []string   `json:"tags"`
	IsActive           bool       `json:"is_active"`
}

// SiteDashboard is the read-only projection served by the dashboard view:
// a site plus its trailing 24h aggregate.
type SiteDashboard struct {
	MonitoredSite
	Uptime24h float64 `json:"uptime_24h"`
	Checks24h int     `json:"checks_24h"`
}

// SiteLog is one historical check result. Append-only.
type SiteLog struct {
	ID              string            `json:"id"`
	SiteID          SiteID            `json:"site_id"`
	CheckedAt       time.Time         `json:"checked_at"`
	Status          LogStatus         `json:"status"`
	ResponseTime    *float64          `json:"response_time"`
	StatusCode      *int              `json:"status_code"`
	ErrorMessage    *string           `json:"error_message"`
	ResponseHeaders map[string]string `json:"response_headers"`
	ResponseSize    *int64            `json:"response_size"`
}

// NewSite is the insert payload. Identity, timestamps and the 24h aggregate
// are filled by the store.
type NewSite struct {
	Name               string     `json:"name"`
	URL                string     `json:"url"`
	Description        *string    `json:"description"`
	Country            string     `json:"country"`
	Region             *string    `json:"region"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	CheckInterval      int        `json:"check_interval"`
	TimeoutSeconds     int        `json:"timeout_seconds"`
	ExpectedStatusCode int        `json:"expected_status_code"`
	Status             SiteStatus `json:"status"`
	Tags               []string   `json:"tags"`
	IsActive           bool       `json:"is_active"`
}

// SitePatch is a partial update; nil fields are left untouched.
type SitePatch struct {
	Name               *string     `json:"name,omitempty"`
	URL                *string     `json:"url,omitempty"`
	Description        *string     `json:"description,omitempty"`
	Country            *string     `json:"country,omitempty"`
	CheckInterval      *int        `json:"check_interval,omitempty"`
	TimeoutSeconds     *int        `json:"timeout_seconds,omitempty"`
	ExpectedStatusCode *int        `json:"expected_status_code,omitempty"`
	Status             *SiteStatus `json:"status,omitempty"`
	Tags               []string    `json:"tags,omitempty"`
	IsActive           *bool       `json:"is_active,omitempty"`
}

// Apply copies the set fields of p onto s.
func (p SitePatch) Apply(s *MonitoredSite) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.URL != nil {
		s.URL = *p.URL
	}
	if p.Description != nil {
		d := *p.Description
		s.Description = &d
	}
	if p.Country != nil {
		s.Country = *p.Country
	}
	if p.CheckInterval != nil {
		s.CheckInterval = *p.CheckInterval
	}
	if p.TimeoutSeconds != nil {
		s.TimeoutSeconds = *p.TimeoutSeconds
	}
	if p.ExpectedStatusCode != nil {
		s.ExpectedStatusCode = *p.ExpectedStatusCode
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Tags != nil {
		s.Tags = append([]string(nil), p.Tags...)
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}
