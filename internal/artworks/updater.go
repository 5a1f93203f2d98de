package artworks

import (
	"context"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
)

type retriever interface {
	Retrieve(ctx context.Context, m domain.Movie) Retrieved
}

type uploader interface {
	Upload(ctx context.Context, m domain.Movie, a domain.Artworks) bool
}

// Updater 把检索、选择、上传组合为一次更新，并给出互斥的结果状态。
type Updater struct {
	retriever retriever
	selector  Selector
	uploader  uploader
}

func NewUpdater(r retriever, s Selector, u uploader) *Updater {
	return &Updater{retriever: r, selector: s, uploader: u}
}

// Fetch 检索并选择，但不上传。
func (u *Updater) Fetch(ctx context.Context, m domain.Movie) domain.Artworks {
	return u.selector.Select(u.retriever.Retrieve(ctx, m), m)
}

// Update 的状态判定顺序：
// 1) 与上一轮快照结构相同：unchanged_artworks（不上传）
// 2) 任一上传失败：upload_failed
// 3) 三个槽位都为空：empty_artworks
// 4) 不完美：imperfect_artworks
// 5) 否则：success
func (u *Updater) Update(ctx context.Context, m domain.Movie, current *domain.Artworks) (domain.UpdateStatus, domain.Artworks) {
	next := u.Fetch(ctx, m)

	if next.Equal(current) {
		return domain.StatusUnchanged, next
	}
	if !u.uploader.Upload(ctx, m, next) {
		return domain.StatusUploadFailed, next
	}
	if next.IsEmpty() {
		return domain.StatusEmpty, next
	}
	if !u.selector.IsPerfect(next, m) {
		return domain.StatusImperfect, next
	}
	return domain.StatusSuccess, next
}
