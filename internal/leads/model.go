package leads

import (
	"regexp"
	"strings"
	"time"

	"github.com/get-synced/Magnet/internal/discoveryctx"
)

// Lead lifecycle statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

var validStatuses = map[string]struct{}{
	StatusNew:       {},
	StatusContacted: {},
	StatusQualified: {},
	StatusConverted: {},
	StatusLost:      {},
}

// ValidStatus reports whether s is a known lead status.
func ValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Lead represents a registered visitor moving through the funnel.
type Lead struct {
	ID                  string             `json:"id"`
	Email               string             `json:"email"`
	SubscribeNewsletter bool               `json:"subscribe_newsletter"`
	Status              string             `json:"status"`
	Notes               string             `json:"notes,omitempty"`
	Discovery           *discoveryctx.Context `json:"discovery,omitempty"`
	DiscoveryAt         *time.Time         `json:"discovery_at,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// RegisterRequest is the body for creating a lead from the landing form.
type RegisterRequest struct {
	Email               string `json:"email"`
	SubscribeNewsletter bool   `json:"subscribeNewsletter"`
}

// Validate validates the registration request.
func (r *RegisterRequest) Validate() error {
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return ErrMissingEmail
	}
	if !emailRE.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}
