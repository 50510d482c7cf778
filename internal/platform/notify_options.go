// Package platform sends desktop notifications through the host's native
// notification service.
package platform

import "time"

// DefaultAppName is reported to the notification service when Options
// leaves AppName empty.
const DefaultAppName = "VisionLearn"

// Urgency ranks a notification. Hosts that support it use the level to
// decide how long the bubble stays and whether it makes a sound.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath points to an image shown beside the text where supported.
	IconPath string
	AppName  string
	// Category groups related notifications, e.g. "transfer.complete".
	Category string
	Urgency  Urgency
	// Timeout is how long the notification stays up. Zero picks a value
	// from the urgency.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}

func (o Options) timeoutMillis() int32 {
	if o.Timeout > 0 {
		return int32(o.Timeout / time.Millisecond)
	}
	switch o.Urgency {
	case UrgencyLow:
		return 3000
	case UrgencyCritical:
		return 10000
	}
	return 5000
}
