package source

import (
	"context"
	"errors"

	"github.com/eweilow/paket/internal/source/pnpm"
)

// ToolSourceAdapter asks the pnpm binary about packages.
// Answers that do not describe the requested package are treated as not found.
type ToolSourceAdapter struct {
	client *pnpm.Client
}

func NewToolSource(client *pnpm.Client) VersionSource {
	return &ToolSourceAdapter{
		client: client,
	}
}

func (a *ToolSourceAdapter) Resolve(ctx context.Context, name string) (*VersionRecord, error) {
	view, err := a.client.View(ctx, name)
	if err != nil {
		if errors.Is(err, pnpm.ErrNoMatch) {
			return nil, ErrNotFound
		}
		return nil, ToolError(err)
	}

	versions := []string(view.Versions)
	if len(versions) == 0 {
		versions = []string{view.Version}
	}

	return &VersionRecord{
		Name:      name,
		Versions:  versions,
		Time:      parseTimes(view.Time),
		LatestTag: view.DistTags["latest"],
		Version:   view.Version,
	}, nil
}

// ToolError converts a package manager failure into a ToolInvocationError
func ToolError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *pnpm.ExitError
	if errors.As(err, &exitErr) {
		return &ToolInvocationError{
			Args:     exitErr.Args,
			ExitCode: exitErr.ExitCode,
			Stderr:   exitErr.Stderr,
			Err:      err,
		}
	}
	return &ToolInvocationError{ExitCode: -1, Err: err}
}
