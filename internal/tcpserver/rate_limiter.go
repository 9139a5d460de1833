package tcpserver

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// acceptRate 新连接接入速率（令牌桶），limiter 为 nil 表示不限速
type acceptRate struct {
	limiter  *rate.Limiter
	perSec   float64
	burst    int
	allowed  atomic.Int64
	rejected atomic.Int64
}

func newAcceptRate(perSec float64, burst int) *acceptRate {
	r := &acceptRate{perSec: perSec, burst: burst}
	if perSec > 0 {
		if burst <= 0 {
			burst = int(perSec * 2)
			if burst < 1 {
				burst = 1
			}
			r.burst = burst
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
	return r
}

// Allow 是否放行一个新连接
func (r *acceptRate) Allow() bool {
	if r.limiter == nil || r.limiter.Allow() {
		r.allowed.Add(1)
		return true
	}
	r.rejected.Add(1)
	return false
}

func (r *acceptRate) Stats() RateLimiterStats {
	return RateLimiterStats{
		RatePerSecond: r.perSec,
		Burst:         r.burst,
		AllowedTotal:  r.allowed.Load(),
		RejectedTotal: r.rejected.Load(),
	}
}

// RateLimiterStats 接入速率统计
type RateLimiterStats struct {
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
	AllowedTotal  int64   `json:"allowed_total"`
	RejectedTotal int64   `json:"rejected_total"`
}
