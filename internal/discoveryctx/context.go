// Package discoveryctx holds the discovery questionnaire context type in a
// leaf package so that both internal/discovery and internal/leads can depend
// on it without importing each other.
package discoveryctx

import "strings"

// UnknownLabel is rendered for any field the visitor never filled in.
const UnknownLabel = "Unknown"

// OtherIndustryPrefix marks a free-text industry collected via the "Other" option.
const OtherIndustryPrefix = "Other:"

// Context is the immutable snapshot of profile data collected by the
// discovery questionnaire before a chat session starts.
type Context struct {
	Industry     string   `json:"industry"`
	Challenges   []string `json:"challenges"`
	Tools        []string `json:"tools"`
	Continuation string   `json:"continuation"`
}

// Complete reports whether every field was filled in.
func (c Context) Complete() bool {
	return strings.TrimSpace(c.Industry) != "" &&
		len(c.Challenges) > 0 &&
		len(c.Tools) > 0 &&
		strings.TrimSpace(c.Continuation) != ""
}

// Empty reports whether nothing was filled in at all.
func (c Context) Empty() bool {
	return strings.TrimSpace(c.Industry) == "" &&
		len(c.Challenges) == 0 &&
		len(c.Tools) == 0 &&
		strings.TrimSpace(c.Continuation) == ""
}

// IndustryLabel returns the industry for prompt embedding. A free-text value
// stored as "Other: X" has the marker stripped and the remainder trimmed.
func (c Context) IndustryLabel() string {
	industry := strings.TrimSpace(c.Industry)
	if industry == "" {
		return UnknownLabel
	}
	if strings.HasPrefix(industry, OtherIndustryPrefix) {
		industry = strings.TrimSpace(strings.TrimPrefix(industry, OtherIndustryPrefix))
		if industry == "" {
			return UnknownLabel
		}
	}
	return industry
}

// ChallengesLabel joins the stated challenges for prompt embedding.
func (c Context) ChallengesLabel() string {
	return joinOrUnknown(c.Challenges)
}

// ToolsLabel joins the visitor's tools for prompt embedding.
func (c Context) ToolsLabel() string {
	return joinOrUnknown(c.Tools)
}

// ContinuationLabel returns the visitor's stated preference for how to proceed.
func (c Context) ContinuationLabel() string {
	if v := strings.TrimSpace(c.Continuation); v != "" {
		return v
	}
	return UnknownLabel
}

func joinOrUnknown(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return UnknownLabel
	}
	return strings.Join(kept, ", ")
}
