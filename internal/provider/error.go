package provider

import "fmt"

const (
	StageSearch   = "search"
	StageFetch    = "fetch"
	StageParse    = "parse"
	StageValidate = "validate"
)

// Error 是 provider 阶段的可追溯错误。
// 上层据此在日志里区分是搜索、抓取、解析还是校验失败。
type Error struct {
	Provider string // provider name（小写）
	Stage    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
