package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/repo"
	"github.com/agileflow/engine/internal/store"
)

type service interface {
	RunDigest(ctx context.Context) error
}

type Cron struct {
	cfg   config.Config
	log   zerolog.Logger
	svc   service
	store *store.Store
	repo  *repo.Repository // nil when persistence is disabled
	c     *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, st *store.Store, r *repo.Repository) *Cron {
	loc, _ := time.LoadLocation(cfg.TZ)
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, store: st, repo: r, c: c}
	_, _ = c.AddFunc(cfg.DigestCron, cr.digest)
	return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) digest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cr.log.Info().Msg("cron: sprint digest")
	if err := cr.svc.RunDigest(ctx); err != nil {
		cr.log.Error().Err(err).Msg("cron: digest failed")
	}
	if cr.repo != nil {
		if err := cr.repo.SaveSnapshot(ctx, cr.store.Snapshot()); err != nil {
			cr.log.Error().Err(err).Msg("cron: snapshot failed")
		}
	}
}
