package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ResolveOptions controls the batched resolution phase
type ResolveOptions struct {
	// Concurrency bounds the number of lookups in flight; zero or less means unbounded
	Concurrency int
	// Progress draws a progress bar on ProgressWriter (stderr when nil)
	Progress       bool
	ProgressWriter io.Writer
}

// Cache memoizes version records per package name for the lifetime of one run.
// Every distinct name reaches the underlying source at most once, including names
// the source reported as not found.
type Cache struct {
	source  VersionSource
	mu      sync.RWMutex
	records map[string]*VersionRecord
	group   singleflight.Group
	fetches atomic.Int64
}

func NewCache(source VersionSource) *Cache {
	return &Cache{
		source:  source,
		records: make(map[string]*VersionRecord),
	}
}

// Lookup returns a cached record without performing any I/O.
// ok is false when the name was never resolved or the source had no record for it.
func (c *Cache) Lookup(name string) (*VersionRecord, bool) {
	record, cached := c.cached(name)
	return record, cached && record != nil
}

func (c *Cache) cached(name string) (*VersionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[name]
	return record, ok
}

func (c *Cache) store(name string, record *VersionRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[name] = record
}

// Resolve returns the record for name, fetching it on first use.
// Names without a record yield ErrNotFound.
func (c *Cache) Resolve(ctx context.Context, name string) (*VersionRecord, error) {
	if record, ok := c.cached(name); ok {
		if record == nil {
			return nil, ErrNotFound
		}
		return record, nil
	}

	value, err, _ := c.group.Do(name, func() (interface{}, error) {
		// a flight for the same name may have completed between the check above and Do
		if record, ok := c.cached(name); ok {
			return record, nil
		}

		c.fetches.Add(1)
		record, err := c.source.Resolve(ctx, name)
		if errors.Is(err, ErrNotFound) {
			log.Debug().Str("package", name).Msg("no version record, excluding package")
			c.store(name, nil)
			return (*VersionRecord)(nil), nil
		}
		if err != nil {
			return nil, err
		}

		c.store(name, record)
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	record := value.(*VersionRecord)
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// ResolveAll fetches every distinct name concurrently and fails on the first error.
// Once it returns successfully, every name is answered from memory.
func (c *Cache) ResolveAll(ctx context.Context, names []string, options *ResolveOptions) error {
	if options == nil {
		options = &ResolveOptions{}
	}

	unique := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}

	log.Debug().
		Int("names", len(unique)).
		Int("concurrency", options.Concurrency).
		Msg("Resolving version records")

	if len(unique) == 0 {
		return nil
	}

	writer := options.ProgressWriter
	if writer == nil {
		writer = os.Stderr
	}

	var bar *progressbar.ProgressBar
	if options.Progress {
		bar = progressbar.NewOptions(len(unique),
			progressbar.OptionSetWriter(writer),
			progressbar.OptionSetDescription("Resolving packages:"),
			progressbar.OptionSetItsString("pkg"),
			progressbar.OptionShowIts(),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if options.Concurrency > 0 {
		group.SetLimit(options.Concurrency)
	}

	for _, name := range unique {
		group.Go(func() error {
			if _, err := c.Resolve(groupCtx, name); err != nil && !errors.Is(err, ErrNotFound) {
				log.Error().Err(err).Str("package", name).Msg("Failed to resolve package")
				return err
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("failed to resolve version records: %w", err)
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(writer)
	}

	log.Debug().Int64("fetches", c.fetches.Load()).Msg("Resolved all version records")
	return nil
}

// Fetches reports how many times the underlying source has been called
func (c *Cache) Fetches() int {
	return int(c.fetches.Load())
}
