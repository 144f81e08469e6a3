// Package notifications pushes trade alerts to external channels.
package notifications

// Notifier delivers a leveled alert. Level is one of "info", "warning",
// "error" or "success".
type Notifier interface {
	SendAlert(level, message string) error
}

// Noop discards every alert. Used when no channel is configured.
type Noop struct{}

func (Noop) SendAlert(level, message string) error { return nil }
