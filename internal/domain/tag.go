package domain

import "fmt"

// Namespace separates the two independent tag vocabularies.
type Namespace string

const (
	// NamespaceCategory holds upstream catalog category names.
	NamespaceCategory Namespace = "category"
	// NamespaceCustom holds free-form streamer-declared tags.
	NamespaceCustom Namespace = "custom"
)

// Namespaces lists all tag namespaces.
func Namespaces() []Namespace {
	return []Namespace{NamespaceCategory, NamespaceCustom}
}

// ParseNamespace validates a namespace string from the API surface.
func ParseNamespace(s string) (Namespace, error) {
	switch Namespace(s) {
	case NamespaceCategory:
		return NamespaceCategory, nil
	case NamespaceCustom:
		return NamespaceCustom, nil
	default:
		return "", fmt.Errorf("unknown namespace %q: %w", s, ErrInvalidNamespace)
	}
}

// Tag is one vocabulary entry. (Name, Namespace) is unique. UsageCount
// grows monotonically by each cycle's occurrence count. Deleted marks a
// soft-delete applied by an external retention policy; the flag is
// cleared when the name reappears in a snapshot.
type Tag struct {
	Name       string    `json:"name"`
	Namespace  Namespace `json:"namespace"`
	UsageCount int64     `json:"usage_count"`
	Deleted    bool      `json:"deleted"`
}

// TagOccurrences aggregates per-cycle occurrence counts from a snapshot,
// split by namespace. Blank names are dropped.
func TagOccurrences(streams []LiveStream) (categories, custom map[string]int64) {
	categories = make(map[string]int64)
	custom = make(map[string]int64)
	for _, s := range streams {
		if s.Category != "" {
			categories[s.Category]++
		}
		for _, t := range s.Tags {
			if t != "" {
				custom[t]++
			}
		}
	}
	return categories, custom
}

// Subscription links a subscriber to one tag name in one namespace.
type Subscription struct {
	SubscriberID string    `json:"subscriber_id"`
	TagName      string    `json:"tag_name"`
	Namespace    Namespace `json:"namespace"`
}

// Subscriber holds per-subscriber delivery settings.
type Subscriber struct {
	ID                   string `json:"id"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}
