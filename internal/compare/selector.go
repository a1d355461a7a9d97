package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eweilow/paket/internal/source"
)

// Mode selects how a target version is picked from a version record
type Mode string

const (
	// ModeAny picks the most recently published version, whatever its tag
	ModeAny Mode = "any"
	// ModeLatest picks the version behind the "latest" dist-tag
	ModeLatest Mode = "latest"
)

// InvalidModeError is returned for selection modes other than any and latest
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid selection mode '%s' (expected 'any' or 'latest')", e.Mode)
}

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeAny:
		return ModeAny, nil
	case ModeLatest:
		return ModeLatest, nil
	default:
		return "", &InvalidModeError{Mode: raw}
	}
}

// SelectVersion returns prefix followed by the version chosen from record.
// ok is false when the record offers no candidate for the mode.
// The record is never modified.
func SelectVersion(mode Mode, prefix string, record *source.VersionRecord) (string, bool) {
	if record == nil {
		return "", false
	}

	switch mode {
	case ModeLatest:
		if record.LatestTag == "" {
			return "", false
		}
		return prefix + record.LatestTag, true
	case ModeAny:
		candidates := newestFirst(record)
		if len(candidates) == 0 {
			return "", false
		}
		return prefix + candidates[0], true
	default:
		return "", false
	}
}

// newestFirst orders a copy of the listed versions by publish time, newest first.
// Versions without a timestamp go last; equal timestamps keep the listing order.
func newestFirst(record *source.VersionRecord) []string {
	candidates := make([]string, len(record.Versions))
	copy(candidates, record.Versions)

	sort.SliceStable(candidates, func(i, j int) bool {
		ti, iok := record.Time[candidates[i]]
		tj, jok := record.Time[candidates[j]]
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ti.After(tj)
	})

	return candidates
}
