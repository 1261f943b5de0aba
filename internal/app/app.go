// Package app builds the client core from configuration: stores, identity,
// repositories, session, saved cache and feed.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/club"
	"github.com/goserg/clubconnect/internal/config"
	"github.com/goserg/clubconnect/internal/docstore"
	docmem "github.com/goserg/clubconnect/internal/docstore/mem"
	docsqlite "github.com/goserg/clubconnect/internal/docstore/sqlite"
	"github.com/goserg/clubconnect/internal/event"
	"github.com/goserg/clubconnect/internal/feed"
	"github.com/goserg/clubconnect/internal/identity/local"
	"github.com/goserg/clubconnect/internal/kvstore"
	kvmem "github.com/goserg/clubconnect/internal/kvstore/mem"
	kvredis "github.com/goserg/clubconnect/internal/kvstore/redis"
	kvsqlite "github.com/goserg/clubconnect/internal/kvstore/sqlite"
	"github.com/goserg/clubconnect/internal/saved"
	"github.com/goserg/clubconnect/internal/session"
	"github.com/goserg/clubconnect/internal/storage"
	"github.com/goserg/clubconnect/internal/user"
)

type App struct {
	Clubs    *club.Repository
	Events   *event.Repository
	Users    *user.Repository
	Identity *local.Provider
	Session  *session.Session
	Saved    *saved.Cache
	Feed     *feed.Feed

	log     *logrus.Entry
	closers []func()
}

// New opens the configured stores and builds every component. Nothing is
// followed until Start.
func New(ctx context.Context, l *logrus.Logger, cfg config.Config) (_ *App, err error) {
	a := &App{log: l.WithFields(map[string]interface{}{"from": "app"})}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	docs, kv, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	docs = docstore.NewBounded(docs, config.MustDuration(cfg.Storage.RequestTimeout, docstore.DefaultTimeout))

	a.Identity, err = local.New(ctx, l, local.Config{
		TokenSecret:     cfg.Identity.TokenSecret,
		TokenExpiration: config.MustDuration(cfg.Identity.TokenExpiration, 0),
		PasswordPepper:  cfg.Identity.PasswordPepper,
		SignInInterval:  config.MustDuration(cfg.Identity.SignInInterval, 0),
		SignInBurst:     cfg.Identity.SignInBurst,
		ActionCodeTTL:   config.MustDuration(cfg.Identity.ActionCodeTTL, 0),
	}, docs, kv, local.NewLogNotifier(l))
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	a.Clubs = club.New(l, docs)
	a.Events = event.New(l, docs)
	a.Users = user.New(l, docs)
	a.Session = session.New(l, a.Identity, a.Users, session.Config{
		ErrorTTL: config.MustDuration(cfg.Client.ErrorTTL, session.DefaultErrorTTL),
	})
	a.Saved = saved.New(l, kv, a.Users, a.Events, saved.Config{RequireSignIn: cfg.Client.RequireSignIn})
	a.Feed = feed.New(l, a.Events, a.Saved)
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg config.Config) (docstore.Store, kvstore.Store, error) {
	var (
		docs docstore.Store
		kv   kvstore.Store
	)
	if cfg.Storage.SQLiteFile != "" {
		db, err := storage.Open(cfg.Storage.SQLiteFile)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		s := docsqlite.New(db)
		a.closers = append(a.closers, s.Close)
		docs, kv = s, kvsqlite.New(db)
		a.log.WithField("file", cfg.Storage.SQLiteFile).Info("using sqlite storage")
	} else {
		s := docmem.New()
		a.closers = append(a.closers, s.Close)
		docs, kv = s, kvmem.New()
		a.log.Warn("no sqlite file configured, data lives in memory")
	}

	if cfg.Redis.Addr != "" {
		r, err := kvredis.New(ctx, kvredis.Config{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			Prefix:      cfg.Redis.Prefix,
			DialTimeout: config.MustDuration(cfg.Redis.DialTimeout, 5*time.Second),
			Timeout:     config.MustDuration(cfg.Redis.Timeout, 3*time.Second),
		})
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = r.Close() })
		kv = r
		a.log.WithField("addr", cfg.Redis.Addr).Info("using redis for local data")
	}
	return docs, kv, nil
}

// Start follows the session, the saved ids and the event list, and waits
// until the session and feed hold their first state.
func (a *App) Start(ctx context.Context) error {
	a.Session.Start(ctx)
	a.closers = append(a.closers, a.Session.Close)
	if err := a.Saved.Start(ctx, a.Session); err != nil {
		return err
	}
	a.closers = append(a.closers, a.Saved.Close)
	if err := a.Feed.Start(ctx); err != nil {
		return err
	}
	a.closers = append(a.closers, a.Feed.Close)

	if err := a.Session.WaitReady(ctx); err != nil {
		return err
	}
	return a.Feed.WaitReady(ctx)
}

// Close releases everything in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
