package discovery

import "github.com/get-synced/Magnet/internal/discoveryctx"

// unknownLabel is rendered for any field the visitor never filled in.
const unknownLabel = discoveryctx.UnknownLabel

// otherIndustryPrefix marks a free-text industry collected via the "Other" option.
const otherIndustryPrefix = discoveryctx.OtherIndustryPrefix

// Context is the immutable snapshot of profile data collected by the
// discovery questionnaire before a chat session starts. The type lives in
// internal/discoveryctx so that internal/leads can reference it without
// importing this package (which imports leads).
type Context = discoveryctx.Context
