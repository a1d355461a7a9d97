package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/eweilow/paket/internal/compare"
	"github.com/eweilow/paket/internal/manifest"
	"github.com/eweilow/paket/internal/pattern"
	"github.com/eweilow/paket/internal/source"
	"github.com/rs/zerolog/log"
)

// Dependency categories as shown in change records
const (
	CategoryNormal      = "normal"
	CategoryDev         = "dev"
	CategoryPeer        = "peer"
	CategoryOptional    = "optional"
	CategoryResolutions = "resolutions"
)

const (
	// RangePrefix is put in front of versions in ranged categories
	RangePrefix = "^"
	// ResolutionKeyPrefix scopes an override to every occurrence of a package
	ResolutionKeyPrefix = "**/"
	// UnsetResolution stands in for a resolveModules entry without an override
	UnsetResolution = "unset"
)

// Change is one dependency spec that differs from the selected version
type Change struct {
	Manifest   string             `json:"manifest" yaml:"manifest"`
	Package    string             `json:"package" yaml:"package"`
	Dependency string             `json:"dependency" yaml:"dependency"`
	Category   string             `json:"category" yaml:"category"`
	Old        string             `json:"old" yaml:"old"`
	New        string             `json:"new" yaml:"new"`
	UpdateType compare.UpdateType `json:"updateType" yaml:"updateType"`
}

func (c *Change) Display() string {
	return fmt.Sprintf("%s (%s): %s -> %s", c.Dependency, c.Category, c.Old, c.New)
}

// UpdateCategory compares every dependency in deps that matches the matcher with
// the version selected from its record, in the map's own order. Names the source
// has no record for are skipped. deps is only modified when doWrite is set.
func UpdateCategory(ctx context.Context, cache *source.Cache, doWrite bool, mode compare.Mode, matcher *pattern.Matcher, deps *manifest.DependencyMap, prefix, label string) ([]*Change, error) {
	changes := make([]*Change, 0)
	if deps == nil {
		return changes, nil
	}

	for _, name := range deps.Keys() {
		if !matcher.Matches(name) {
			continue
		}

		record, err := cache.Resolve(ctx, name)
		if errors.Is(err, source.ErrNotFound) {
			log.Debug().Str("package", name).Str("category", label).Msg("No version record, skipping")
			continue
		}
		if err != nil {
			return nil, err
		}

		next, ok := compare.SelectVersion(mode, prefix, record)
		if !ok {
			log.Debug().Str("package", name).Str("mode", string(mode)).Msg("No candidate version, skipping")
			continue
		}

		current, _ := deps.Get(name)
		if current == next {
			continue
		}

		changes = append(changes, &Change{
			Dependency: name,
			Category:   label,
			Old:        current,
			New:        next,
			UpdateType: compare.ClassifyUpdate(current, next),
		})

		if doWrite {
			deps.Set(name, next)
		}
	}

	return changes, nil
}

// synthesizeResolutions maps each resolveModules name to its current override
func synthesizeResolutions(m *manifest.Manifest) *manifest.DependencyMap {
	resolutions := manifest.NewDependencyMap()
	for _, name := range m.ResolveModules {
		value, ok := m.Resolutions.Get(ResolutionKeyPrefix + name)
		if !ok {
			value = UnsetResolution
		}
		resolutions.Set(name, value)
	}
	return resolutions
}

// storeResolutions writes synthesized values back under their "**/" keys,
// creating the resolutions object when needed. Unset entries are left out.
func storeResolutions(m *manifest.Manifest, resolutions *manifest.DependencyMap) {
	for _, name := range resolutions.Keys() {
		value, _ := resolutions.Get(name)
		if value == UnsetResolution {
			continue
		}
		if m.Resolutions == nil {
			m.Resolutions = manifest.NewDependencyMap()
		}
		m.Resolutions.Set(ResolutionKeyPrefix+name, value)
	}
}

// updateManifest runs every category of m in a fixed order
func updateManifest(ctx context.Context, cache *source.Cache, doWrite bool, mode compare.Mode, matcher *pattern.Matcher, m *manifest.Manifest) ([]*Change, error) {
	categories := []struct {
		deps  *manifest.DependencyMap
		label string
	}{
		{m.Dependencies, CategoryNormal},
		{m.DevDependencies, CategoryDev},
		{m.PeerDependencies, CategoryPeer},
		{m.OptionalDependencies, CategoryOptional},
	}

	changes := make([]*Change, 0)
	for _, category := range categories {
		categoryChanges, err := UpdateCategory(ctx, cache, doWrite, mode, matcher, category.deps, RangePrefix, category.label)
		if err != nil {
			return nil, err
		}
		changes = append(changes, categoryChanges...)
	}

	if len(m.ResolveModules) > 0 {
		resolutions := synthesizeResolutions(m)
		resolutionChanges, err := UpdateCategory(ctx, cache, doWrite, mode, matcher, resolutions, "", CategoryResolutions)
		if err != nil {
			return nil, err
		}
		changes = append(changes, resolutionChanges...)
		if doWrite {
			storeResolutions(m, resolutions)
		}
	}

	for _, change := range changes {
		change.Manifest = m.Path
		change.Package = m.Name
	}
	return changes, nil
}

// dedupeChanges drops changes whose display string was already seen
func dedupeChanges(changes []*Change) []*Change {
	seen := make(map[string]bool, len(changes))
	unique := make([]*Change, 0, len(changes))
	for _, change := range changes {
		display := change.Display()
		if seen[display] {
			continue
		}
		seen[display] = true
		unique = append(unique, change)
	}
	return unique
}
