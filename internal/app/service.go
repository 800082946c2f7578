package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/motion_analyzer/internal/config"
	"github.com/relabs-tech/motion_analyzer/internal/pipeline"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
	"github.com/relabs-tech/motion_analyzer/internal/store"
)

// Service decodes recordings, runs the pipeline and archives the result.
// It is shared by the MQTT analyzer and the web API.
type Service struct {
	opts  pipeline.Options
	store store.Store
}

func NewService(opts pipeline.Options, st store.Store) *Service {
	return &Service{opts: opts, store: st}
}

// Analyze runs a raw recording payload through the pipeline. A failed
// archive write is logged; the record is still returned.
func (s *Service) Analyze(ctx context.Context, payload []byte, patient, exercise, source string) (*store.Record, error) {
	rec, err := recording.Decode(payload, s.opts.Scale)
	if err != nil {
		return nil, err
	}

	analysis, err := pipeline.Analyze(ctx, rec, s.opts)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	r := store.NewRecord(analysis, patient, exercise, source)
	if s.store != nil {
		if err := s.store.Save(ctx, r); err != nil {
			log.Printf("store: save %s: %v", r.ID, err)
		}
	}
	return r, nil
}

// openStore builds the configured store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.StoreDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisTTL:      time.Duration(cfg.RedisTTLSeconds) * time.Second,
	})
}
