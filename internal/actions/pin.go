package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eweilow/paket/internal/pattern"
	"github.com/eweilow/paket/internal/source"
	"github.com/eweilow/paket/internal/source/pnpm"
	"github.com/rs/zerolog/log"
)

type PinOptions struct {
	Globs       []string
	VersionSpec string
	// DryRun stops before the package manager is asked to update anything
	DryRun         bool
	Runner         pnpm.Runner
	Concurrency    int
	Progress       bool
	ProgressWriter io.Writer
}

// PinnedPackage is a name together with the version it is pinned to
type PinnedPackage struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

type PinResult struct {
	VersionSpec string           `json:"versionSpec" yaml:"versionSpec"`
	Globs       []string         `json:"globs" yaml:"globs"`
	Workspace   []*PinnedPackage `json:"workspace" yaml:"workspace"`
	Candidates  []string         `json:"candidates" yaml:"candidates"`
	Resolved    []*PinnedPackage `json:"resolved" yaml:"resolved"`
	Skipped     []string         `json:"skipped" yaml:"skipped"`
	Specs       []string         `json:"specs" yaml:"specs"`
	Applied     bool             `json:"applied" yaml:"applied"`
}

// ParsePinArgs splits "<globs...> <version-spec>": the last argument is the spec
func ParsePinArgs(args []string) ([]string, string, error) {
	if len(args) < 2 {
		return nil, "", &InvalidArgumentsError{Reason: "expected at least one glob followed by a version spec"}
	}
	globs := args[:len(args)-1]
	spec := strings.TrimSpace(args[len(args)-1])
	if spec == "" {
		return nil, "", &InvalidArgumentsError{Reason: "empty version spec"}
	}
	return globs, spec, nil
}

// Pin moves every non-workspace dependency matching the globs to the version
// the package manager reports for the spec, and re-pins workspace packages to
// their own versions.
func Pin(ctx context.Context, options *PinOptions) (*PinResult, error) {
	if options == nil || options.Runner == nil {
		return nil, fmt.Errorf("no package manager runner configured")
	}
	if strings.TrimSpace(options.VersionSpec) == "" {
		return nil, &InvalidArgumentsError{Reason: "no version spec given"}
	}
	matcher, err := pattern.Compile(options.Globs)
	if err != nil {
		return nil, &InvalidArgumentsError{Reason: "invalid package glob", Err: err}
	}

	client := pnpm.NewClient(options.Runner, options.VersionSpec)

	packages, err := client.ListWorkspace(ctx)
	if err != nil {
		return nil, source.ToolError(err)
	}

	result := &PinResult{
		VersionSpec: options.VersionSpec,
		Globs:       matcher.Globs(),
		Workspace:   make([]*PinnedPackage, 0),
		Candidates:  make([]string, 0),
		Resolved:    make([]*PinnedPackage, 0),
		Skipped:     make([]string, 0),
		Specs:       make([]string, 0),
	}

	local := make(map[string]bool)
	for _, pkg := range packages {
		if pkg.Name == "" || pkg.Version == "" || local[pkg.Name] {
			continue
		}
		local[pkg.Name] = true
		result.Workspace = append(result.Workspace, &PinnedPackage{Name: pkg.Name, Version: pkg.Version})
		log.Debug().Str("package", pkg.Name).Str("version", pkg.Version).Msg("Found workspace package")
	}

	seen := make(map[string]bool)
	for _, pkg := range packages {
		for _, name := range matcher.Filter(pkg.DependencyNames()) {
			if local[name] || seen[name] {
				continue
			}
			seen[name] = true
			result.Candidates = append(result.Candidates, name)
		}
	}

	log.Debug().
		Int("workspace", len(result.Workspace)).
		Int("candidates", len(result.Candidates)).
		Str("spec", options.VersionSpec).
		Msg("Resolving non-workspace dependencies")

	cache := source.NewCache(source.NewToolSource(client))
	err = cache.ResolveAll(ctx, result.Candidates, &source.ResolveOptions{
		Concurrency:    options.Concurrency,
		Progress:       options.Progress,
		ProgressWriter: options.ProgressWriter,
	})
	if err != nil {
		return nil, err
	}

	for _, name := range result.Candidates {
		record, err := cache.Resolve(ctx, name)
		if errors.Is(err, source.ErrNotFound) {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Resolved = append(result.Resolved, &PinnedPackage{Name: name, Version: record.Version})
	}

	for _, pkg := range result.Resolved {
		result.Specs = append(result.Specs, fmt.Sprintf("%s@%s", pkg.Name, pkg.Version))
	}
	for _, pkg := range result.Workspace {
		result.Specs = append(result.Specs, fmt.Sprintf("%s@workspace:%s", pkg.Name, pkg.Version))
	}

	if options.DryRun {
		log.Info().Int("specs", len(result.Specs)).Msg("Dry run, not updating")
		return result, nil
	}
	if len(result.Specs) == 0 {
		log.Info().Msg("Nothing to update")
		return result, nil
	}

	if err := client.Update(ctx, result.Specs); err != nil {
		return nil, source.ToolError(err)
	}
	result.Applied = true

	return result, nil
}
