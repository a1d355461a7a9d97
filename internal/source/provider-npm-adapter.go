package source

import (
	"context"
	"errors"

	"github.com/eweilow/paket/internal/source/npm"
)

// RegistrySourceAdapter serves version records straight from an npm-compatible registry.
// Malformed answers are fatal for this source kind.
type RegistrySourceAdapter struct {
	client *npm.Client
}

func NewRegistrySource(options *npm.Options) VersionSource {
	return &RegistrySourceAdapter{
		client: npm.NewClient(options),
	}
}

func (a *RegistrySourceAdapter) Resolve(ctx context.Context, name string) (*VersionRecord, error) {
	packument, err := a.client.FetchPackument(ctx, name)
	if err != nil {
		if errors.Is(err, npm.ErrMalformed) {
			return nil, &MalformedResponseError{Name: name, Reason: err.Error()}
		}
		registryErr := &RegistryError{Name: name, URL: a.client.PackageURL(name), Err: err}
		var statusErr *npm.StatusError
		if errors.As(err, &statusErr) {
			registryErr.StatusCode = statusErr.StatusCode
		}
		return nil, registryErr
	}

	return &VersionRecord{
		Name:      name,
		Versions:  packument.Versions,
		Time:      parseTimes(packument.Time),
		LatestTag: packument.DistTags["latest"],
	}, nil
}
