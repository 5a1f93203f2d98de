package app

import (
	"context"
	"testing"

	"github.com/matthieumontaigu/plex-poster-manager/internal/config"
	"github.com/matthieumontaigu/plex-poster-manager/internal/tasks"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Plex:   config.PlexConfig{URL: "http://plex.invalid", Token: "t", MetadataCountry: "fr", MoviesSectionID: 1},
		TMDB:   config.TMDBConfig{APIToken: "t"},
		Google: config.GoogleConfig{APIKey: "k", CustomSearchID: "c"},
		Search: config.SearchConfig{MinInterval: 1, TitleThreshold: 0.75},
		Artworks: config.ArtworksConfig{
			Retriever: config.RetrieverConfig{Countries: []string{"fr", "us"}},
			Selector:  config.SelectorConfig{TargetSource: "apple"},
			Reverter:  config.ReverterConfig{ArtworksTypes: []string{"poster", "logo"}},
		},
		Schedules: map[string]config.ScheduleConfig{
			tasks.NameRecentlyAdded:   {Type: "every", Params: []any{600}},
			tasks.NameMissingArtworks: {Type: "daily_at", Params: []any{3, 0}},
		},
		Cache: config.CacheConfig{Path: t.TempDir(), RetentionDays: 1},
	}
}

func TestNew_WiresTasksAndSchedules(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	for _, name := range tasks.Names {
		if _, ok := a.Task(name); !ok {
			t.Fatalf("缺少任务 %q", name)
		}
	}
	if a.scheduler.Len() != 2 {
		t.Fatalf("期望调度 2 个任务，实际 %d", a.scheduler.Len())
	}
}

func TestNew_UnknownTargetSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Artworks.Selector.TargetSource = "netflix"
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("期望错误（未知 target_source）")
	}
}

func TestNew_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedules[tasks.NameArtworksReverter] = config.ScheduleConfig{Type: "daily_at", Params: []any{3}}
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("期望错误（daily_at 参数数量）")
	}
}

func TestRunOnce_UnknownTask(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := a.RunOnce(context.Background(), "nope"); err == nil {
		t.Fatalf("期望错误（未知任务）")
	}
}
