package domain

import "context"

// Settings are the tunable analytics thresholds owned by the external
// settings collaborator.
type Settings struct {
	SpamThreshold            int `json:"spam_threshold"`
	AutoRejectThreshold      int `json:"auto_reject_threshold"`
	CriticalDensityThreshold int `json:"critical_density_threshold"`
	HighDensityThreshold     int `json:"high_density_threshold"`
	MediumDensityThreshold   int `json:"medium_density_threshold"`
	TrendWindowDays          int `json:"trend_time_window"`
}

// DefaultSettings returns the documented defaults used whenever the
// settings provider is absent or erroring.
func DefaultSettings() Settings {
	return Settings{
		SpamThreshold:            60,
		AutoRejectThreshold:      80,
		CriticalDensityThreshold: 10,
		HighDensityThreshold:     6,
		MediumDensityThreshold:   3,
		TrendWindowDays:          7,
	}
}

// SettingsProvider exposes the current settings. Implementations may fail
// at any time; callers must degrade to DefaultSettings rather than surface
// the error mid-request.
type SettingsProvider interface {
	Current(ctx context.Context) (Settings, error)
}

// StaticSettings is a SettingsProvider over a fixed value, used when
// settings come from process configuration.
type StaticSettings struct {
	Settings Settings
}

func (s StaticSettings) Current(context.Context) (Settings, error) {
	return s.Settings, nil
}

// SettingsOrDefault resolves settings from the provider, falling back to the
// documented defaults when the provider is nil or erroring.
func SettingsOrDefault(ctx context.Context, p SettingsProvider) Settings {
	if p == nil {
		return DefaultSettings()
	}
	s, err := p.Current(ctx)
	if err != nil {
		return DefaultSettings()
	}
	return s
}
