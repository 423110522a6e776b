package session

import "time"

// DefaultInstallSuppression is how long a dismissed install banner stays hidden.
var DefaultInstallSuppression = 24 * time.Hour

// InstallPrompt decides when the "install the app" banner is shown.
type InstallPrompt struct {
	Window time.Duration
}

// Visible reports if the banner may be shown at now, given when it was last dismissed.
func (ip InstallPrompt) Visible(dismissedAt, now time.Time) bool {
	if dismissedAt.IsZero() {
		return true
	}
	return now.Sub(dismissedAt) >= ip.Window
}
