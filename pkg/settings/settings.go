// Package settings holds per-user application settings with an explicit
// load-on-first-use and save-on-change lifecycle.
package settings

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSettings = errors.New("invalid settings")

const DefaultLanguage = "en"

var (
	Frequencies      = []string{"immediate", "daily", "weekly"}
	Visibilities     = []string{"public", "institutions", "private"}
	RetentionPeriods = []string{"1-year", "3-years", "5-years", "indefinite"}
	DefaultLanguages = []string{"en", "es", "fr", "de"}
)

type EmailNotifications struct {
	VerificationComplete bool `json:"verification_complete" yaml:"verification_complete"`
	VerificationFailed   bool `json:"verification_failed" yaml:"verification_failed"`
	DocumentExpiring     bool `json:"document_expiring" yaml:"document_expiring"`
	SecurityAlerts       bool `json:"security_alerts" yaml:"security_alerts"`
	WeeklyDigest         bool `json:"weekly_digest" yaml:"weekly_digest"`
	PromotionalEmails    bool `json:"promotional_emails" yaml:"promotional_emails"`
}

type PushNotifications struct {
	VerificationUpdates bool `json:"verification_updates" yaml:"verification_updates"`
	SecurityAlerts      bool `json:"security_alerts" yaml:"security_alerts"`
	DocumentReminders   bool `json:"document_reminders" yaml:"document_reminders"`
	SystemMaintenance   bool `json:"system_maintenance" yaml:"system_maintenance"`
}

type SMSNotifications struct {
	CriticalAlerts       bool `json:"critical_alerts" yaml:"critical_alerts"`
	VerificationComplete bool `json:"verification_complete" yaml:"verification_complete"`
	SecurityAlerts       bool `json:"security_alerts" yaml:"security_alerts"`
}

type Notifications struct {
	Email     EmailNotifications `json:"email" yaml:"email"`
	Push      PushNotifications  `json:"push" yaml:"push"`
	SMS       SMSNotifications   `json:"sms" yaml:"sms"`
	Frequency string             `json:"frequency" yaml:"frequency"`
}

type Privacy struct {
	ProfileVisibility       string `json:"profile_visibility" yaml:"profile_visibility"`
	ShareVerificationStatus bool   `json:"share_verification_status" yaml:"share_verification_status"`
	AllowInstitutionContact bool   `json:"allow_institution_contact" yaml:"allow_institution_contact"`
	DataAnalytics           bool   `json:"data_analytics" yaml:"data_analytics"`
	MarketingCommunications bool   `json:"marketing_communications" yaml:"marketing_communications"`
	ThirdPartySharing       bool   `json:"third_party_sharing" yaml:"third_party_sharing"`
	DataRetention           string `json:"data_retention" yaml:"data_retention"`
}

type Settings struct {
	Language      string        `json:"language" yaml:"language"`
	Notifications Notifications `json:"notifications" yaml:"notifications"`
	Privacy       Privacy       `json:"privacy" yaml:"privacy"`
}

// Defaults are the settings of a user who never changed anything.
func Defaults() Settings {
	return Settings{
		Language: DefaultLanguage,
		Notifications: Notifications{
			Email: EmailNotifications{
				VerificationComplete: true,
				VerificationFailed:   true,
				DocumentExpiring:     true,
				SecurityAlerts:       true,
			},
			Push: PushNotifications{
				VerificationUpdates: true,
				SecurityAlerts:      true,
				DocumentReminders:   true,
			},
			SMS: SMSNotifications{
				CriticalAlerts: true,
				SecurityAlerts: true,
			},
			Frequency: "immediate",
		},
		Privacy: Privacy{
			ProfileVisibility:       "private",
			AllowInstitutionContact: true,
			DataAnalytics:           true,
			DataRetention:           "5-years",
		},
	}
}

// Validate checks every enumerated field against its allowed values.
func (s Settings) Validate(languages []string) error {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	var problems []string
	if !oneOf(s.Language, languages) {
		problems = append(problems, fmt.Sprintf("language %q is not supported", s.Language))
	}
	if !oneOf(s.Notifications.Frequency, Frequencies) {
		problems = append(problems, fmt.Sprintf("frequency %q is not one of %s", s.Notifications.Frequency, strings.Join(Frequencies, ", ")))
	}
	if !oneOf(s.Privacy.ProfileVisibility, Visibilities) {
		problems = append(problems, fmt.Sprintf("profile visibility %q is not one of %s", s.Privacy.ProfileVisibility, strings.Join(Visibilities, ", ")))
	}
	if !oneOf(s.Privacy.DataRetention, RetentionPeriods) {
		problems = append(problems, fmt.Sprintf("data retention %q is not one of %s", s.Privacy.DataRetention, strings.Join(RetentionPeriods, ", ")))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
