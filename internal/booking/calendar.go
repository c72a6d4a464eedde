// Package booking describes the calendar hand-off surfaced to qualified
// leads. Actual scheduling happens on an external booking page; this core
// only renders the affordance.
package booking

import "strings"

const defaultOfferMessage = "Let's find a time that works for you."

// Calendar points at the external scheduling page.
type Calendar struct {
	URL               string
	MeetingLengthMins int
}

// NewCalendar builds the booking surface. Returns nil when no URL is
// configured, in which case no offer payload is ever rendered.
func NewCalendar(url string, meetingLengthMins int) *Calendar {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if meetingLengthMins <= 0 {
		meetingLengthMins = 30
	}
	return &Calendar{URL: strings.TrimSpace(url), MeetingLengthMins: meetingLengthMins}
}

// Offer is the informational payload the presentation layer uses to render
// the booking affordance.
type Offer struct {
	CalendarURL       string `json:"calendar_url"`
	MeetingLengthMins int    `json:"meeting_length_mins"`
	Message           string `json:"message"`
}

// Offer renders the booking payload. Nil-safe: a nil Calendar yields nil.
func (c *Calendar) Offer() *Offer {
	if c == nil {
		return nil
	}
	return &Offer{
		CalendarURL:       c.URL,
		MeetingLengthMins: c.MeetingLengthMins,
		Message:           defaultOfferMessage,
	}
}
