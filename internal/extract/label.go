package extract

import "strings"

// fieldRole identifies which listing field a labeled template element
// anchors.
type fieldRole int

const (
	roleUnknown fieldRole = iota
	rolePhoto
	rolePrice
	roleFacts
	roleAddress
)

// classifyLabel maps an accessibility label to a fieldRole. The vendor
// template prefixes each label with the field name, so a case-insensitive
// prefix match is the most stable dispatch available; anything else is
// template noise and classifies as roleUnknown.
func classifyLabel(label string) fieldRole {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "photo"):
		return rolePhoto
	case strings.HasPrefix(l, "price"):
		return rolePrice
	case strings.HasPrefix(l, "facts"):
		return roleFacts
	case strings.HasPrefix(l, "address"):
		return roleAddress
	default:
		return roleUnknown
	}
}
