package pnpm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog/log"
)

// ErrNoMatch is returned when the package manager has no usable answer for a name
var ErrNoMatch = errors.New("no matching package")

// PackageView is the subset of `pnpm view --json` output used for version selection
type PackageView struct {
	Name     string            `json:"name"`
	Version  string            `json:"version"`
	Versions StringList        `json:"versions"`
	Time     map[string]string `json:"time"`
	DistTags map[string]string `json:"dist-tags"`
}

// StringList decodes either a JSON array of strings or a single string;
// `pnpm view` prints a bare string when a package has one version
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*l = StringList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// WorkspacePackage is one entry of `pnpm list --recursive --json`
type WorkspacePackage struct {
	Name                 string                     `json:"name"`
	Version              string                     `json:"version"`
	Path                 string                     `json:"path"`
	Dependencies         map[string]json.RawMessage `json:"dependencies"`
	DevDependencies      map[string]json.RawMessage `json:"devDependencies"`
	PeerDependencies     map[string]json.RawMessage `json:"peerDependencies"`
	OptionalDependencies map[string]json.RawMessage `json:"optionalDependencies"`
}

// DependencyNames returns the names of normal, dev and peer dependencies, sorted per category
func (p *WorkspacePackage) DependencyNames() []string {
	names := make([]string, 0)
	for _, deps := range []map[string]json.RawMessage{p.Dependencies, p.DevDependencies, p.PeerDependencies} {
		keys := make([]string, 0, len(deps))
		for name := range deps {
			keys = append(keys, name)
		}
		sort.Strings(keys)
		names = append(names, keys...)
	}
	return names
}

// Client wraps package manager commands
type Client struct {
	Runner      Runner
	VersionSpec string
}

func NewClient(runner Runner, versionSpec string) *Client {
	return &Client{
		Runner:      runner,
		VersionSpec: versionSpec,
	}
}

// View inspects name at the client's version spec.
// Answers that cannot be decoded, or that describe a different package, yield ErrNoMatch.
func (c *Client) View(ctx context.Context, name string) (*PackageView, error) {
	query := name
	if c.VersionSpec != "" {
		query = fmt.Sprintf("%s@%s", name, c.VersionSpec)
	}

	output, err := c.Runner.Output(ctx, "view", query, "--json")
	if err != nil {
		return nil, err
	}

	view, err := decodeView(output)
	if err != nil {
		log.Debug().Err(err).Str("query", query).Msg("discarding unreadable package view")
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, query)
	}

	if view.Name != name || view.Version == "" {
		log.Debug().
			Str("query", query).
			Str("reported", view.Name).
			Msg("package view does not describe the requested package")
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, query)
	}

	return view, nil
}

// decodeView accepts a single object or, when a range matched several versions, an array
// of objects in ascending order; the last element wins
func decodeView(output []byte) (*PackageView, error) {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty output")
	}

	if trimmed[0] == '[' {
		var views []*PackageView
		if err := json.Unmarshal(trimmed, &views); err != nil {
			return nil, err
		}
		if len(views) == 0 || views[len(views)-1] == nil {
			return nil, fmt.Errorf("empty result list")
		}
		return views[len(views)-1], nil
	}

	view := &PackageView{}
	if err := json.Unmarshal(trimmed, view); err != nil {
		return nil, err
	}
	return view, nil
}

// ListWorkspace returns every package of the workspace
func (c *Client) ListWorkspace(ctx context.Context) ([]*WorkspacePackage, error) {
	output, err := c.Runner.Output(ctx, "list", "--recursive", "--json")
	if err != nil {
		return nil, err
	}
	return decodeWorkspace(output)
}

// decodeWorkspace reads a stream of JSON documents; older releases print one document per
// package, newer ones a single array
func decodeWorkspace(output []byte) ([]*WorkspacePackage, error) {
	packages := make([]*WorkspacePackage, 0)
	decoder := json.NewDecoder(bytes.NewReader(output))
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode workspace listing: %w", err)
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] == 'n' {
			continue
		}

		if trimmed[0] == '[' {
			var list []*WorkspacePackage
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, fmt.Errorf("failed to decode workspace listing: %w", err)
			}
			packages = append(packages, list...)
			continue
		}

		pkg := &WorkspacePackage{}
		if err := json.Unmarshal(trimmed, pkg); err != nil {
			return nil, fmt.Errorf("failed to decode workspace listing: %w", err)
		}
		packages = append(packages, pkg)
	}

	valid := make([]*WorkspacePackage, 0, len(packages))
	for _, pkg := range packages {
		if pkg == nil {
			continue
		}
		valid = append(valid, pkg)
	}
	return valid, nil
}

// Update runs a recursive update for the given name@version specs
func (c *Client) Update(ctx context.Context, specs []string) error {
	args := append([]string{"--recursive", "update"}, specs...)
	return c.Runner.Stream(ctx, args...)
}
