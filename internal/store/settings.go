package store

import (
	"encoding/json"
	"fmt"
)

// Themes lists the accepted Settings.Theme values.  Empty means "default".
var Themes = []string{"default", "minimal", "modern", "playful", "professional"}

// DefaultThankYou is shown after a submission when no message is set.
const DefaultThankYou = "Thank you for your submission!"

// Settings is a form's presentation and post-submit configuration.  It is
// stored as one JSON document.
type Settings struct {
	ThankYouMessage          string `json:"thankYouMessage,omitempty" yaml:"thankYouMessage,omitempty"`
	RedirectURL              string `json:"redirectUrl,omitempty" yaml:"redirectUrl,omitempty" validate:"omitempty,url"`
	AllowMultipleSubmissions bool   `json:"allowMultipleSubmissions,omitempty" yaml:"allowMultipleSubmissions,omitempty"`
	WebhookEnabled           bool   `json:"webhookEnabled,omitempty" yaml:"webhookEnabled,omitempty"`
	WebhookURL               string `json:"webhookUrl,omitempty" yaml:"webhookUrl,omitempty" validate:"omitempty,url"`
	EnableHoneypot           bool   `json:"enableHoneypot,omitempty" yaml:"enableHoneypot,omitempty"`
	BlockBots                bool   `json:"blockBots,omitempty" yaml:"blockBots,omitempty"`
	Theme                    string `json:"theme,omitempty" yaml:"theme,omitempty" validate:"omitempty,oneof=default minimal modern playful professional"`
	Layout                   string `json:"layout,omitempty" yaml:"layout,omitempty"`
	ShowProgressBar          bool   `json:"showProgressBar,omitempty" yaml:"showProgressBar,omitempty"`
	RemoveBranding           bool   `json:"removeBranding,omitempty" yaml:"removeBranding,omitempty"`
}

// DefaultSettings is what a new form starts with.
func DefaultSettings() Settings {
	return Settings{ThankYouMessage: DefaultThankYou}
}

// Merge overlays patch onto s key by key.  Keys outside Settings are
// ignored.  A null value resets that key to its zero value.
func (s Settings) Merge(patch map[string]any) (Settings, error) {
	if len(patch) == 0 {
		return s, nil
	}
	cur, err := json.Marshal(s)
	if err != nil {
		return s, err
	}
	m := make(map[string]any)
	if err := json.Unmarshal(cur, &m); err != nil {
		return s, err
	}
	for k, v := range patch {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return s, err
	}
	var out Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return s, fmt.Errorf("merge settings: %w", err)
	}
	return out, nil
}

// ThankYou returns the configured message or the default.
func (s Settings) ThankYou() string {
	if s.ThankYouMessage == "" {
		return DefaultThankYou
	}
	return s.ThankYouMessage
}
