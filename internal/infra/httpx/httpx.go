package httpx

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	defaultTimeout = 20 * time.Second

	// DefaultRetryMax 表示最多 4 次尝试（首次 + 3 次重试）。
	DefaultRetryMax       = 3
	DefaultInitialBackoff = 600 * time.Millisecond
	DefaultBackoffFactor  = 1.6
)

// Transport 把“UA 池 + 有界重试 + 乘法退避”固化为统一的外呼策略。
//
// 规则：
// - 只对可重放的请求（GET/HEAD 且无 body）重试；上传类 POST/PUT 只发一次
// - 网络错误与 429/500/502/503/504 会触发退避重试
// - 其它状态码直接返回给调用方，由调用方决定如何降级
// - 退避没有抖动（固定乘法因子）
type Transport struct {
	Base http.RoundTripper

	ua *uaPool

	// RetryMax 表示最大重试次数（不含首次尝试）。
	RetryMax int

	InitialBackoff time.Duration
	BackoffFactor  float64

	// Sleep 可在测试中替换；默认按 ctx 可取消地等待。
	Sleep func(ctx context.Context, d time.Duration) error
}

// RetryableStatus 判断状态码是否属于可重试的瞬时错误。
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	backoff := t.InitialBackoff
	if backoff <= 0 {
		backoff = DefaultInitialBackoff
	}
	factor := t.BackoffFactor
	if factor < 1 {
		factor = DefaultBackoffFactor
	}
	sleep := t.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.ua != nil {
			r.Header.Set("User-Agent", t.ua.random())
		}

		resp, err := base.RoundTrip(r)
		if err == nil && !RetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt >= max {
			return resp, err
		}
		if err != nil {
			lastErr = err
		} else {
			// 丢弃本次响应体，保证连接可复用。
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if req.Context().Err() != nil {
			if lastErr == nil {
				lastErr = req.Context().Err()
			}
			return nil, lastErr
		}
		if err := sleep(req.Context(), backoff); err != nil {
			return nil, err
		}
		backoff = time.Duration(float64(backoff) * factor)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewClient 构造对外 HTTP client：UA 池 + 有界重试 + 总超时。
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: NewTransport(nil),
		Timeout:   timeout,
	}
}

// NewTransport 以默认重试策略包装 base（nil 表示 http.DefaultTransport）。
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
		}
	}
	return &Transport{
		Base:           base,
		ua:             globalUA,
		RetryMax:       DefaultRetryMax,
		InitialBackoff: DefaultInitialBackoff,
		BackoffFactor:  DefaultBackoffFactor,
	}
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_3) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.3 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
