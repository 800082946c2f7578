package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Tiered writes through to the archive and serves reads from the cache
// first. Cache failures are logged and never fail a call.
type Tiered struct {
	Cache   Store
	Archive Store
}

func (t *Tiered) Save(ctx context.Context, r *Record) error {
	if err := t.Archive.Save(ctx, r); err != nil {
		return err
	}
	if err := t.Cache.Save(ctx, r); err != nil {
		log.Printf("store: cache save %s: %v", r.ID, err)
	}
	return nil
}

func (t *Tiered) Get(ctx context.Context, id string) (*Record, error) {
	r, err := t.Cache.Get(ctx, id)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Printf("store: cache get %s: %v", id, err)
	}

	r, err = t.Archive.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Cache.Save(ctx, r); err != nil {
		log.Printf("store: cache refill %s: %v", id, err)
	}
	return r, nil
}

// ListByPatient always asks the archive; the cache only holds recent entries.
func (t *Tiered) ListByPatient(ctx context.Context, patient string) ([]*Record, error) {
	return t.Archive.ListByPatient(ctx, patient)
}

func (t *Tiered) Close() error {
	return errors.Join(t.Cache.Close(), t.Archive.Close())
}

// Options selects the backends. Empty fields disable a tier.
type Options struct {
	Driver        string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

// Open builds the store described by opts: archive and cache together,
// either alone, or an in-memory store when neither is set.
func Open(ctx context.Context, opts Options) (Store, error) {
	var archive, cache Store

	if opts.Driver != "" {
		a, err := OpenSQL(ctx, opts.Driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		archive = a
	}

	if opts.RedisAddr != "" {
		c := NewRedisCache(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisTTL)
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			if archive != nil {
				_ = archive.Close()
			}
			return nil, fmt.Errorf("failed to reach Redis at %s: %w", opts.RedisAddr, err)
		}
		cache = c
	}

	switch {
	case archive != nil && cache != nil:
		return &Tiered{Cache: cache, Archive: archive}, nil
	case archive != nil:
		return archive, nil
	case cache != nil:
		return cache, nil
	}
	log.Printf("store: no archive or cache configured, keeping analyses in memory")
	return NewMemory(), nil
}
