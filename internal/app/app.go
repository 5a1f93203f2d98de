// Package app 根据配置组装全部组件，并对外提供“常驻调度”与“单次运行”两种入口。
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/matthieumontaigu/plex-poster-manager/internal/artworks"
	"github.com/matthieumontaigu/plex-poster-manager/internal/config"
	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/infra/cache"
	"github.com/matthieumontaigu/plex-poster-manager/internal/infra/httpx"
	"github.com/matthieumontaigu/plex-poster-manager/internal/localizer"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
	"github.com/matthieumontaigu/plex-poster-manager/internal/match"
	"github.com/matthieumontaigu/plex-poster-manager/internal/metadata"
	"github.com/matthieumontaigu/plex-poster-manager/internal/plex"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider/appletv"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider/search"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider/tmdb"
	"github.com/matthieumontaigu/plex-poster-manager/internal/scheduler"
	"github.com/matthieumontaigu/plex-poster-manager/internal/tasks"
)

const (
	recentCacheName  = "recently_added"
	missingCacheName = "missing_artworks"
)

type App struct {
	tasks     map[string]tasks.Task
	scheduler *scheduler.Scheduler
	log       *slog.Logger
}

// New 只做组装，不发起任何网络请求。
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	log = logx.OrNull(log)
	client := httpx.NewClient(0)

	lib := plex.New(plex.Config{
		URL:             cfg.Plex.URL,
		Token:           cfg.Plex.Token,
		MetadataCountry: cfg.Plex.MetadataCountry,
		MetadataPath:    cfg.Plex.MetadataPath,
		MoviesSectionID: cfg.Plex.MoviesSectionID,
	}, client, log.With("component", "plex"))

	catalog := tmdb.NewClient(cfg.TMDB.APIToken, client)
	loc := localizer.New(catalog, localizer.DefaultTables(), log.With("component", "localizer"))

	scorer := match.NewScorer(cfg.Search.TitleThreshold)
	engine := search.NewEngine(search.Config{
		APIKey:      cfg.Google.APIKey,
		CX:          cfg.Google.CustomSearchID,
		MinInterval: config.Seconds(cfg.Search.MinInterval),
	}, client, scorer, log.With("component", "search"))
	apple := appletv.New(engine, client, scorer, log.With("component", "appletv"))
	engine.Languages = loc
	engine.Details = apple

	reg, err := provider.NewRegistry(apple)
	if err != nil {
		return nil, err
	}
	primary, err := reg.Primary(cfg.Artworks.Selector.TargetSource)
	if err != nil {
		return nil, err
	}

	ruleset := artworks.Ruleset{MatchTitle: cfg.Artworks.Selector.MatchMovieTitle}
	retriever, err := artworks.NewRetriever(artworks.RetrieverConfig{
		Countries: cfg.Artworks.Retriever.Countries,
		Interval:  config.Seconds(cfg.Artworks.CountriesSleepInterval),
		Ruleset:   ruleset,
	}, primary, loc, tmdb.LogoProvider{Client: catalog, Locales: loc}, log.With("component", "retriever"))
	if err != nil {
		return nil, err
	}
	selector := artworks.NewSelector(artworks.SelectorConfig{
		MatchMovieTitle: cfg.Artworks.Selector.MatchMovieTitle,
		MatchLogoPoster: cfg.Artworks.Selector.MatchLogoPoster,
		TargetSource:    cfg.Artworks.Selector.TargetSource,
	})
	uploader := artworks.NewUploader(lib, config.Seconds(cfg.Artworks.UploadSleepInterval), log.With("component", "uploader"))
	updater := artworks.NewUpdater(retriever, selector, uploader)
	dates := metadata.NewUpdater(loc, lib, log.With("component", "metadata"))

	recent, err := cache.NewMovies(cfg.Cache.Path, recentCacheName, cfg.Cache.Retention())
	if err != nil {
		return nil, err
	}
	missing, err := cache.NewMovies(cfg.Cache.Path, missingCacheName, 0)
	if err != nil {
		return nil, err
	}

	kinds := make([]domain.ArtworkKind, 0, len(cfg.Artworks.Reverter.ArtworksTypes))
	for _, s := range cfg.Artworks.Reverter.ArtworksTypes {
		k, err := domain.ParseArtworkKind(s)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}

	moviesSleep := config.Seconds(cfg.Artworks.MoviesSleepInterval)
	a := &App{
		tasks: map[string]tasks.Task{
			tasks.NameRecentlyAdded:    tasks.NewRecentlyAdded(lib, updater, dates, recent, missing, moviesSleep, log),
			tasks.NameMissingArtworks:  tasks.NewMissingArtworks(lib, updater, missing, moviesSleep, log),
			tasks.NameArtworksReverter: tasks.NewReverter(lib, kinds, log),
		},
		scheduler: scheduler.New(scheduler.LogObserver{Log: log}),
		log:       log,
	}

	names := make([]string, 0, len(cfg.Schedules))
	for name := range cfg.Schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t, ok := a.tasks[name]
		if !ok {
			return nil, fmt.Errorf("未知任务：%q", name)
		}
		sc := cfg.Schedules[name]
		sch, err := scheduler.FromConfig(sc.Type, sc.Params)
		if err != nil {
			return nil, fmt.Errorf("schedules.%s: %w", name, err)
		}
		a.scheduler.Add(t, sch)
	}

	log.Info("app ready",
		"countries", cfg.Artworks.Retriever.Countries,
		"target_source", primary.Name(),
		"cache_dir", filepath.Clean(cfg.Cache.Path),
		"scheduled_tasks", a.scheduler.Len(),
	)
	return a, nil
}

// Task 按名称返回任务。
func (a *App) Task(name string) (tasks.Task, bool) {
	t, ok := a.tasks[name]
	return t, ok
}

// Run 常驻运行调度器，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	return a.scheduler.Run(ctx)
}

// RunOnce 立即运行一次指定任务（不受 schedules 约束）。
func (a *App) RunOnce(ctx context.Context, name string) (domain.TaskReport, error) {
	t, ok := a.Task(name)
	if !ok {
		return domain.TaskReport{}, fmt.Errorf("未知任务：%q（可选：%v）", name, tasks.Names)
	}
	return scheduler.Execute(ctx, t, scheduler.LogObserver{Log: a.log})
}
