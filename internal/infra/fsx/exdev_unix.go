//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// isEXDEV 识别缓存目录位于不支持同盘 rename 的挂载点（例如某些容器卷）时的失败。
// *os.LinkError 实现了 Unwrap，errors.Is 可以直接看到 errno。
func isEXDEV(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
