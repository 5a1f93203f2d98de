package domain

// EntityKind 是商店详情页的实体类型。
type EntityKind string

const (
	EntityMovie EntityKind = "movie"
	EntityShow  EntityKind = "show"
)

// Target 描述一次匹配尝试要解析的实体。
type Target struct {
	Title     string
	Directors []string
	Year      int
	Country   string // 两位小写国家码
	Entity    EntityKind
}

// Candidate 是一条外部搜索结果的归一化视图（不落盘）。
//
// URL 已去掉 query 与 fragment；Year == 0 表示未知。
type Candidate struct {
	URL      string
	Title    string
	Director string
	Year     int
	Language string
}
