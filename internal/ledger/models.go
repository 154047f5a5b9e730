package ledger

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a ledger document.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReady     Status = "ready"
	StatusDiscarded Status = "discarded"
	StatusArchived  Status = "archived"
)

var allStatuses = []Status{
	StatusPending,
	StatusReady,
	StatusDiscarded,
	StatusArchived,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether the state machine permits moving a
// document from one status to another. Archived is terminal; discarded
// may only be reinstated to pending.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusReady || to == StatusDiscarded
	case StatusReady:
		return to == StatusArchived || to == StatusDiscarded
	case StatusDiscarded:
		return to == StatusPending
	case StatusArchived:
		return false
	default:
		return false
	}
}

// Document is a ledger record tracking one content-addressed document.
// The id is the content identifier and never changes; status is owned
// exclusively by the ledger.
type Document struct {
	ID                 string
	Status             Status
	SourceRef          string
	LengthBytes        int64
	DetectedLanguage   string
	LanguageConfidence float64
	DiscardReason      string
	ImportedAt         time.Time
	ReviewedAt         *time.Time
	ArchivedIn         string
}

// Filter narrows document queries. Zero values mean "no constraint".
type Filter struct {
	Statuses       []Status
	SourcePrefix   string
	ImportedBefore time.Time
	ImportedAfter  time.Time
	Limit          int
}

// Bundle describes a sealed archive artifact and its membership.
type Bundle struct {
	ID             string
	CreatedAt      time.Time
	ManifestDigest string
	Compression    string
	Path           string
	MemberCount    int
	Members        []BundleMember
}

// BundleMember is one document inside a bundle, in canonical order.
type BundleMember struct {
	DocumentID string
	SizeBytes  int64
	Digest     string
}

// Summary aggregates document counts per lifecycle status.
type Summary struct {
	Total     int
	Pending   int
	Ready     int
	Discarded int
	Archived  int
}
