package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/infra/cache"
	"github.com/matthieumontaigu/plex-poster-manager/internal/plex"
)

type stubLibrary struct {
	recent  []domain.Movie
	all     []domain.Movie
	tmdb    map[int]int
	exists  map[int]bool
	errs    map[int]error
	images  map[int][]plex.Image
	uploads []string
}

func (s *stubLibrary) RecentlyAdded(context.Context) ([]domain.Movie, error) { return s.recent, nil }
func (s *stubLibrary) AllMovies(context.Context) ([]domain.Movie, error)     { return s.all, nil }

func (s *stubLibrary) TMDBID(_ context.Context, id int) (int, error) {
	return s.tmdb[id], s.errs[id]
}

func (s *stubLibrary) Exists(_ context.Context, id int) (bool, error) {
	return s.exists[id], s.errs[id]
}

func (s *stubLibrary) Images(_ context.Context, id int, _ domain.ArtworkKind) ([]plex.Image, error) {
	return s.images[id], nil
}

func (s *stubLibrary) ImageFile(_ context.Context, key string) (string, error) {
	return "/bundle/" + key, nil
}

func (s *stubLibrary) UploadImageFile(_ context.Context, _ int, kind domain.ArtworkKind, path string) error {
	s.uploads = append(s.uploads, string(kind)+":"+path)
	return nil
}

type stubUpdater struct {
	status   map[int]domain.UpdateStatus
	got      domain.Artworks
	currents map[int]*domain.Artworks
	calls    []int
}

func (s *stubUpdater) Update(_ context.Context, m domain.Movie, current *domain.Artworks) (domain.UpdateStatus, domain.Artworks) {
	s.calls = append(s.calls, m.ID)
	if s.currents == nil {
		s.currents = map[int]*domain.Artworks{}
	}
	s.currents[m.ID] = current
	return s.status[m.ID], s.got
}

type stubDates struct {
	ids []int
}

func (s *stubDates) UpdateReleaseDate(_ context.Context, m domain.Movie) bool {
	s.ids = append(s.ids, m.ID)
	return true
}

func noSleep(context.Context, time.Duration) error { return nil }

func newCaches(t *testing.T) (*cache.MoviesCache, *cache.MoviesCache) {
	t.Helper()
	dir := t.TempDir()
	recent, err := cache.NewMovies(dir, "recently_added", time.Hour)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	missing, err := cache.NewMovies(dir, "missing_artworks", 0)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	return recent, missing
}

func reload(t *testing.T, c *cache.MoviesCache) {
	t.Helper()
	if err := c.Load(); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
}

var poster = domain.Artworks{Poster: &domain.Image{URL: "p", Country: "fr", Title: "Up", Source: "apple"}}

func TestRecentlyAdded_Run(t *testing.T) {
	recent, missing := newCaches(t)
	base := int64(1_700_000_000)
	lib := &stubLibrary{
		recent: []domain.Movie{
			{ID: 1, Title: "A", AddedAt: base},
			{ID: 2, Title: "B", AddedAt: base - 10},
			{ID: 3, Title: "C", AddedAt: base - 20},
			{ID: 4, Title: "D", AddedAt: base - 30},
			{ID: 5, Title: "E", AddedAt: base - 40},
		},
		tmdb: map[int]int{1: 11, 2: 22, 3: 33, 5: 55},
	}
	up := &stubUpdater{
		status: map[int]domain.UpdateStatus{
			1: domain.StatusSuccess,
			2: domain.StatusImperfect,
			3: domain.StatusUploadFailed,
		},
		got: poster,
	}
	dates := &stubDates{}

	recent.Add(lib.recent[4])
	if err := recent.Save(); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	task := NewRecentlyAdded(lib, up, dates, recent, missing, 0, nil)
	task.Sleep = noSleep
	rep, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if len(up.calls) != 3 {
		t.Fatalf("期望处理 3 部（4 无 tmdb id、5 已缓存），实际 %v", up.calls)
	}
	if up.currents[1] != nil {
		t.Fatalf("最近添加的电影没有上一轮快照")
	}
	if len(dates.ids) != 2 || dates.ids[0] != 1 || dates.ids[1] != 2 {
		t.Fatalf("上传失败时不应更新上映日期，实际 %v", dates.ids)
	}
	if rep.RunID == "" || rep.Task != NameRecentlyAdded {
		t.Fatalf("报告缺少 run_id/task：%+v", rep)
	}
	if rep.Count(domain.StatusSkipped) != 1 || rep.Count(domain.StatusUploadFailed) != 1 {
		t.Fatalf("报告统计不正确：%v", rep.Summary)
	}

	reload(t, recent)
	reload(t, missing)
	for _, id := range []int{1, 2, 5} {
		if _, ok := recent.Get(id); !ok {
			t.Fatalf("recent 应包含 %d", id)
		}
	}
	if _, ok := recent.Get(3); ok {
		t.Fatalf("上传失败的电影不应进入 recent")
	}
	if missing.Len() != 2 {
		t.Fatalf("missing 期望 2 条，实际 %d", missing.Len())
	}
	failed, ok := missing.Get(3)
	if !ok || failed.Artworks != nil {
		t.Fatalf("上传失败的电影应以空快照进入 missing：%+v ok=%v", failed, ok)
	}
	m, _ := missing.Get(2)
	if m.Artworks == nil || m.Artworks.Poster == nil || m.TMDBID != 22 {
		t.Fatalf("missing 应携带新快照与 tmdb id：%+v", m)
	}
}

func TestRecentlyAdded_NoMovies(t *testing.T) {
	recent, missing := newCaches(t)
	task := NewRecentlyAdded(&stubLibrary{}, &stubUpdater{}, &stubDates{}, recent, missing, 0, nil)
	rep, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(rep.Items) != 0 {
		t.Fatalf("期望没有条目，实际 %v", rep.Items)
	}
}

func TestMissingArtworks_Run(t *testing.T) {
	_, missing := newCaches(t)
	prev := poster.Clone()
	for _, m := range []domain.Movie{
		{ID: 1, Title: "gone"},
		{ID: 2, Title: "done", Artworks: &prev},
		{ID: 3, Title: "better", Artworks: &prev},
		{ID: 4, Title: "same", Artworks: &prev},
		{ID: 5, Title: "flaky"},
	} {
		missing.Put(m)
	}
	if err := missing.Save(); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	lib := &stubLibrary{
		exists: map[int]bool{2: true, 3: true, 4: true},
		errs:   map[int]error{5: errors.New("timeout")},
	}
	newer := domain.Artworks{Poster: &domain.Image{URL: "p2", Country: "fr", Title: "Up", Source: "apple"}}
	up := &stubUpdater{
		status: map[int]domain.UpdateStatus{
			2: domain.StatusSuccess,
			3: domain.StatusImperfect,
			4: domain.StatusUnchanged,
		},
		got: newer,
	}

	task := NewMissingArtworks(lib, up, missing, 0, nil)
	task.Sleep = noSleep
	rep, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if up.currents[2] == nil || !up.currents[2].Equal(&prev) {
		t.Fatalf("应以缓存快照作为上一轮结果")
	}
	if rep.Count(domain.StatusRemoved) != 1 || rep.Count(domain.StatusSkipped) != 1 {
		t.Fatalf("报告统计不正确：%v", rep.Summary)
	}

	reload(t, missing)
	if _, ok := missing.Get(1); ok {
		t.Fatalf("已不存在的电影应移出缓存")
	}
	if _, ok := missing.Get(2); ok {
		t.Fatalf("success 应移出缓存")
	}
	if m, _ := missing.Get(3); m.Artworks == nil || m.Artworks.Poster.URL != "p2" {
		t.Fatalf("imperfect 应以新快照覆盖：%+v", m.Artworks)
	}
	if m, _ := missing.Get(4); m.Artworks == nil || m.Artworks.Poster.URL != "p" {
		t.Fatalf("unchanged 应保持原快照：%+v", m.Artworks)
	}
	if _, ok := missing.Get(5); !ok {
		t.Fatalf("检查失败的电影应保留")
	}
}

func TestReverter_Run(t *testing.T) {
	selectedAgent := []plex.Image{
		{Key: "upload://posters/abc", Selected: false},
		{Key: "metadata://posters/tv.plex.agents.movie_1", Selected: true},
		{Key: "upload://posters/def", Selected: false},
	}
	selectedUpload := []plex.Image{
		{Key: "upload://posters/abc", Selected: true},
		{Key: "metadata://posters/tv.plex.agents.movie_1", Selected: false},
	}
	lib := &stubLibrary{
		all: []domain.Movie{
			{ID: 1, Title: "old", AddedAt: 10},
			{ID: 2, Title: "new", AddedAt: 20},
			{ID: 3, Title: "kept", AddedAt: 15},
		},
		images: map[int][]plex.Image{1: selectedAgent, 2: selectedAgent, 3: selectedUpload},
	}

	task := NewReverter(lib, []domain.ArtworkKind{domain.Poster}, nil)
	var sleeps int
	task.Sleep = func(context.Context, time.Duration) error { sleeps++; return nil }
	rep, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	want := []string{"poster:/bundle/upload://posters/def", "poster:/bundle/upload://posters/def"}
	if len(lib.uploads) != len(want) {
		t.Fatalf("期望恢复 2 次，实际 %v", lib.uploads)
	}
	for i := range want {
		if lib.uploads[i] != want[i] {
			t.Fatalf("期望 %q，实际 %q", want[i], lib.uploads[i])
		}
	}
	if rep.Count(domain.StatusReverted) != 2 {
		t.Fatalf("报告统计不正确：%v", rep.Summary)
	}
	if sleeps != 3 {
		t.Fatalf("每部电影之后应等待一次，实际 %d", sleeps)
	}
}
