package source

import (
	"context"
	"time"
)

// VersionRecord describes the published versions of one package.
// Records are never modified after they have been fetched.
type VersionRecord struct {
	Name string
	// Versions keeps the order in which the source listed them
	Versions  []string
	Time      map[string]time.Time
	LatestTag string
	// Version is the version that satisfied a fixed version spec, if the source was asked for one
	Version string
}

// VersionSource returns version information for a package name
type VersionSource interface {
	Resolve(ctx context.Context, name string) (*VersionRecord, error)
}

// parseTimes converts publish timestamps; entries that are not RFC 3339 are dropped
func parseTimes(raw map[string]string) map[string]time.Time {
	times := make(map[string]time.Time, len(raw))
	for version, value := range raw {
		parsed, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			continue
		}
		times[version] = parsed
	}
	return times
}
