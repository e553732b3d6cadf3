package domain

import "strings"

// Status is the publication state stored on every locale instance.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// NormalizeStatus coerces arbitrary input into a known Status, defaulting to draft.
func NormalizeStatus(input string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(input))) {
	case StatusPublished:
		return StatusPublished
	default:
		return StatusDraft
	}
}

func (s Status) String() string { return string(s) }
