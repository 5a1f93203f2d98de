package domain

// UpdateStatus 是一次完整更新尝试的结果（互斥）。
type UpdateStatus string

const (
	StatusUnchanged    UpdateStatus = "unchanged_artworks"
	StatusUploadFailed UpdateStatus = "upload_failed"
	StatusEmpty        UpdateStatus = "empty_artworks"
	StatusImperfect    UpdateStatus = "imperfect_artworks"
	StatusSuccess      UpdateStatus = "success"
)

// 任务层额外使用的条目状态（不是 updater 的输出）。
const (
	StatusSkipped  UpdateStatus = "skipped"
	StatusRemoved  UpdateStatus = "removed"
	StatusReverted UpdateStatus = "reverted"
	StatusFailed   UpdateStatus = "failed"
)
