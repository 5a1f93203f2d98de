package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/infra/fsx"
)

// MoviesCache 是按 Plex id 索引的电影缓存，落盘为 <dir>/<name>.json。
//
// 约束：
// - 任务开始时 Load，内存中修改，任务结束时 Save 一次（不在每次修改后落盘）
// - membership 只看主键，不比较记录内容
// - 单线程使用，不加锁
type MoviesCache struct {
	dir       string
	name      string
	retention int64 // 秒

	data  map[int]domain.Movie
	dirty bool
}

var ErrInvalidName = errors.New("cache: 非法名称")

var cacheNameRE = regexp.MustCompile(`^[a-z0-9_]+$`)

// NewMovies 构造缓存；retention 只影响 Clear。
func NewMovies(dir, name string, retention time.Duration) (*MoviesCache, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !cacheNameRE.MatchString(name) {
		return nil, fmt.Errorf("%w：%q", ErrInvalidName, name)
	}
	if retention < 0 {
		retention = 0
	}
	return &MoviesCache{
		dir:       filepath.Clean(strings.TrimSpace(dir)),
		name:      name,
		retention: int64(retention / time.Second),
		data:      make(map[int]domain.Movie),
	}, nil
}

// Path 返回缓存文件的路径。
func (c *MoviesCache) Path() string {
	return filepath.Join(c.dir, c.name+".json")
}

// Load 从磁盘整体替换内存内容；文件不存在时视为空缓存。
func (c *MoviesCache) Load() error {
	data := make(map[int]domain.Movie)
	if _, err := fsx.ReadJSON(c.Path(), &data); err != nil {
		return err
	}
	c.data = data
	c.dirty = false
	return nil
}

// Save 在有修改时整体覆盖写入。
func (c *MoviesCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := fsx.WriteJSON(c.dir, c.name+".json", c.data); err != nil {
		if fsx.IsCrossDevice(err) {
			return fmt.Errorf("cache %s: cache_path 所在文件系统不支持原子替换：%w", c.name, err)
		}
		return err
	}
	c.dirty = false
	return nil
}

// Dirty 表示自上次 Load/Save 以来是否有实际修改。
func (c *MoviesCache) Dirty() bool { return c.dirty }

// Add 仅在 id 不存在时插入；返回是否真的插入。
func (c *MoviesCache) Add(m domain.Movie) bool {
	if _, ok := c.data[m.ID]; ok {
		return false
	}
	c.data[m.ID] = m.Clone()
	c.dirty = true
	return true
}

// Put 覆盖同 id 的记录（用于刷新未完成条目的 artworks 快照）。
func (c *MoviesCache) Put(m domain.Movie) {
	c.data[m.ID] = m.Clone()
	c.dirty = true
}

func (c *MoviesCache) Remove(m domain.Movie) bool {
	if _, ok := c.data[m.ID]; !ok {
		return false
	}
	delete(c.data, m.ID)
	c.dirty = true
	return true
}

func (c *MoviesCache) RemoveAll(ms []domain.Movie) {
	for _, m := range ms {
		c.Remove(m)
	}
}

// Clear 删除所有 AddedAt < ref.AddedAt - retention 的条目，返回删除数量。
func (c *MoviesCache) Clear(ref domain.Movie) int {
	before := ref.AddedAt - c.retention
	n := 0
	for id, m := range c.data {
		if m.AddedAt < before {
			delete(c.data, id)
			n++
		}
	}
	if n > 0 {
		c.dirty = true
	}
	return n
}

// Contains 只按主键判断。
func (c *MoviesCache) Contains(m domain.Movie) bool {
	_, ok := c.data[m.ID]
	return ok
}

func (c *MoviesCache) Get(id int) (domain.Movie, bool) {
	m, ok := c.data[id]
	if !ok {
		return domain.Movie{}, false
	}
	return m.Clone(), true
}

func (c *MoviesCache) Len() int { return len(c.data) }

// Items 返回按 id 排序的快照；遍历期间修改缓存是安全的。
func (c *MoviesCache) Items() []domain.Movie {
	out := make([]domain.Movie, 0, len(c.data))
	for _, m := range c.data {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
