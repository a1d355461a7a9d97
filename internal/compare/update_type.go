package compare

import (
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// UpdateType represents the kind of version change between two specs
type UpdateType string

const (
	UpdateTypeMajor     UpdateType = "major"
	UpdateTypeMinor     UpdateType = "minor"
	UpdateTypePatch     UpdateType = "patch"
	UpdateTypeDowngrade UpdateType = "downgrade"
	UpdateTypeNone      UpdateType = "none"
	UpdateTypeUnknown   UpdateType = "unknown"
)

// ClassifyUpdate compares the versions behind two dependency specs.
// Specs that are not plain versions after removing range operators, such as
// tags, URLs or "unset", classify as unknown.
func ClassifyUpdate(current, next string) UpdateType {
	if stripRange(current) == stripRange(next) {
		return UpdateTypeNone
	}

	currentVersion, err := mm.NewVersion(stripRange(current))
	if err != nil {
		return UpdateTypeUnknown
	}
	nextVersion, err := mm.NewVersion(stripRange(next))
	if err != nil {
		return UpdateTypeUnknown
	}

	switch cmp := nextVersion.Compare(currentVersion); {
	case cmp < 0:
		return UpdateTypeDowngrade
	case cmp == 0:
		return UpdateTypeNone
	}

	if nextVersion.Major() != currentVersion.Major() {
		return UpdateTypeMajor
	}
	if nextVersion.Minor() != currentVersion.Minor() {
		return UpdateTypeMinor
	}
	// patch bumps and prerelease moves within the same patch level
	return UpdateTypePatch
}

func stripRange(spec string) string {
	return strings.TrimLeft(strings.TrimSpace(spec), "^~=<>v ")
}
