package actions

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/eweilow/paket/internal/compare"
	"github.com/eweilow/paket/internal/configuration"
	"github.com/eweilow/paket/internal/manifest"
	"github.com/eweilow/paket/internal/pattern"
	"github.com/eweilow/paket/internal/source"
	"github.com/rs/zerolog/log"
)

// Operation decides whether a run writes manifests
type Operation string

const (
	OperationUpdate Operation = "update"
	OperationCheck  Operation = "check"
)

func ParseOperation(raw string) (Operation, error) {
	switch Operation(strings.ToLower(strings.TrimSpace(raw))) {
	case OperationUpdate:
		return OperationUpdate, nil
	case OperationCheck:
		return OperationCheck, nil
	default:
		return "", &InvalidArgumentsError{Reason: fmt.Sprintf("unknown operation '%s' (expected 'update' or 'check')", raw)}
	}
}

type RunOptions struct {
	Root      string
	Operation Operation
	Mode      compare.Mode
	Globs     []string
	Source    source.VersionSource
	// SourceLabel describes the source in reports, e.g. the registry URL
	SourceLabel string
	Concurrency int
	// Ignore is used when the workspace has no ignore file; nil means the default list
	Ignore         []string
	Progress       bool
	ProgressWriter io.Writer
}

type ManifestResult struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
	// Changes holds one entry per distinct display string
	Changes []*Change `json:"changes" yaml:"changes"`
	Written bool      `json:"written" yaml:"written"`
}

type RunResult struct {
	Root        string            `json:"root" yaml:"root"`
	Source      string            `json:"source" yaml:"source"`
	Operation   Operation         `json:"operation" yaml:"operation"`
	Mode        compare.Mode      `json:"mode" yaml:"mode"`
	Globs       []string          `json:"globs" yaml:"globs"`
	Ignore      []string          `json:"ignore" yaml:"ignore"`
	Manifests   []*ManifestResult `json:"manifests" yaml:"manifests"`
	Changed     bool              `json:"changed" yaml:"changed"`
	Written     []string          `json:"written" yaml:"written"`
	Fetched     int               `json:"fetched" yaml:"fetched"`
	ChangeCount int               `json:"changeCount" yaml:"changeCount"`
}

// Run checks or updates every manifest below options.Root. All matched names are
// resolved up front so that every manifest sees the same records; any resolution
// or parse failure aborts the run before a single manifest is written.
func Run(ctx context.Context, options *RunOptions) (*RunResult, error) {
	if err := validateRunOptions(options); err != nil {
		return nil, err
	}

	matcher, err := pattern.Compile(options.Globs)
	if err != nil {
		return nil, &InvalidArgumentsError{Reason: "invalid package glob", Err: err}
	}

	root, err := filepath.Abs(options.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", options.Root, err)
	}

	ignore, err := ResolveIgnore(root, options.Ignore)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("root", root).
		Str("operation", string(options.Operation)).
		Str("mode", string(options.Mode)).
		Strs("globs", matcher.Globs()).
		Strs("ignore", ignore).
		Msg("Starting run")

	paths, err := manifest.Discover(root, ignore)
	if err != nil {
		return nil, err
	}

	manifests := make([]*manifest.Manifest, 0, len(paths))
	for _, path := range paths {
		m, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}

	cache := source.NewCache(options.Source)
	names := collectNames(manifests, matcher)
	err = cache.ResolveAll(ctx, names, &source.ResolveOptions{
		Concurrency:    options.Concurrency,
		Progress:       options.Progress,
		ProgressWriter: options.ProgressWriter,
	})
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Root:      root,
		Source:    options.SourceLabel,
		Operation: options.Operation,
		Mode:      options.Mode,
		Globs:     matcher.Globs(),
		Ignore:    ignore,
		Manifests: make([]*ManifestResult, 0, len(manifests)),
		Written:   make([]string, 0),
	}

	doWrite := options.Operation == OperationUpdate
	for _, m := range manifests {
		changes, err := updateManifest(ctx, cache, doWrite, options.Mode, matcher, m)
		if err != nil {
			return nil, err
		}

		manifestResult := &ManifestResult{
			Path:    m.Path,
			Name:    m.Name,
			Changes: dedupeChanges(changes),
		}
		if len(manifestResult.Changes) > 0 {
			result.Changed = true
			result.ChangeCount += len(manifestResult.Changes)
		}

		if doWrite {
			written, err := manifest.WriteIfChanged(m)
			if err != nil {
				return nil, err
			}
			manifestResult.Written = written
			if written {
				result.Written = append(result.Written, m.Path)
			}
		}

		result.Manifests = append(result.Manifests, manifestResult)
	}

	result.Fetched = cache.Fetches()

	log.Debug().
		Int("manifests", len(result.Manifests)).
		Int("changes", result.ChangeCount).
		Int("written", len(result.Written)).
		Int("fetched", result.Fetched).
		Msg("Run complete")

	return result, nil
}

func validateRunOptions(options *RunOptions) error {
	if options == nil {
		return &InvalidArgumentsError{Reason: "no options given"}
	}
	if options.Operation != OperationUpdate && options.Operation != OperationCheck {
		return &InvalidArgumentsError{Reason: fmt.Sprintf("unknown operation '%s'", options.Operation)}
	}
	if options.Mode != compare.ModeAny && options.Mode != compare.ModeLatest {
		return &InvalidArgumentsError{Reason: fmt.Sprintf("unknown selection mode '%s'", options.Mode)}
	}
	if len(options.Globs) == 0 {
		return &InvalidArgumentsError{Reason: "no package globs given"}
	}
	if options.Source == nil {
		return fmt.Errorf("no version source configured")
	}
	return nil
}

// collectNames lists every dependency name the run needs, in first-seen order.
// resolveModules entries are always included, matching or not.
func collectNames(manifests []*manifest.Manifest, matcher *pattern.Matcher) []string {
	names := make([]string, 0)
	seen := make(map[string]bool)
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, m := range manifests {
		for _, name := range m.ResolveModules {
			add(name)
		}
		for _, deps := range []*manifest.DependencyMap{m.Dependencies, m.DevDependencies, m.PeerDependencies, m.OptionalDependencies} {
			for _, name := range matcher.Filter(deps.Keys()) {
				add(name)
			}
		}
	}
	return names
}

// ResolveIgnore picks the ignore list for root: the workspace ignore file when
// present, then configured, then manifest.DefaultIgnore
func ResolveIgnore(root string, configured []string) ([]string, error) {
	patterns, found, err := configuration.LoadIgnoreFile(root)
	if err != nil {
		return nil, err
	}
	if found {
		log.Debug().Str("file", configuration.IgnoreFile).Msg("Using workspace ignore file")
		return patterns, nil
	}
	if configured != nil {
		return configured, nil
	}
	return manifest.DefaultIgnore, nil
}
