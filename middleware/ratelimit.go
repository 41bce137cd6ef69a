package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// loginAttemptTracker 按 IP 记录窗口内的登录尝试次数
type loginAttemptTracker struct {
	mu          sync.Mutex
	window      time.Duration
	maxAttempts int
	store       map[string][]time.Time
}

func newLoginAttemptTracker(maxAttempts int, window time.Duration) *loginAttemptTracker {
	tr := &loginAttemptTracker{
		window:      window,
		maxAttempts: maxAttempts,
		store:       make(map[string][]time.Time),
	}
	// 定期清理过期数据
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			tr.mu.Lock()
			cutoff := time.Now().Add(-tr.window)
			for ip, ts := range tr.store {
				kept := ts[:0]
				for _, t := range ts {
					if t.After(cutoff) {
						kept = append(kept, t)
					}
				}
				if len(kept) == 0 {
					delete(tr.store, ip)
				} else {
					tr.store[ip] = kept
				}
			}
			tr.mu.Unlock()
		}
	}()
	return tr
}

// allow 记录一次尝试，超出窗口配额时返回 false
func (tr *loginAttemptTracker) allow(ip string) bool {
	now := time.Now()
	tr.mu.Lock()
	defer tr.mu.Unlock()

	cutoff := now.Add(-tr.window)
	kept := tr.store[ip][:0]
	for _, t := range tr.store[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= tr.maxAttempts {
		tr.store[ip] = kept
		return false
	}
	tr.store[ip] = append(kept, now)
	return true
}

// LoginRateLimit API端登录限流中间件
// 每 IP 每窗口最多 maxAttempts 次尝试，超过返回 429（{code,message,data} 信封）
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	tr := newLoginAttemptTracker(maxAttempts, window)
	return func(c *gin.Context) {
		if !tr.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "登录尝试过于频繁，请稍后再试",
				"data":    nil,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminLoginRateLimit 后台登录限流中间件，429 使用后台 {success,message} 信封
func AdminLoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	tr := newLoginAttemptTracker(maxAttempts, window)
	return func(c *gin.Context) {
		if !tr.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "登录尝试过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
