package tcpserver

import (
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常接入
	StateOpen                  // 拒绝新连接
	StateHalfOpen              // 放行少量连接试探
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen 熔断期间拒绝新连接
var ErrCircuitOpen = errors.New("circuit breaker is open")

// halfOpenProbes 半开状态下连续成功多少次恢复正常
const halfOpenProbes = 3

// CircuitBreaker 接入熔断：连续故障（accept 失败、连接因协议错误被踢）达到阈值后
// 在 timeout 内拒绝新连接
type CircuitBreaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	probes    int
	openedAt  time.Time
	changedAt time.Time
	trips     int64

	threshold int
	timeout   time.Duration
	now       func() time.Time

	onStateChange func(from, to State)
}

func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
		changedAt: time.Now(),
	}
}

// Allow 新连接是否放行
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.timeout {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.probes = 0
	}
	return nil
}

// Success 记录一次正常接入
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case StateHalfOpen:
		cb.probes++
		if cb.probes >= halfOpenProbes {
			cb.failures = 0
			cb.setState(StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
}

// Failure 记录一次故障
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	switch cb.state {
	case StateHalfOpen:
		cb.trip()
	case StateClosed:
		if cb.failures >= cb.threshold {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.now()
	cb.trips++
	cb.setState(StateOpen)
}

func (cb *CircuitBreaker) setState(s State) {
	if cb.state == s {
		return
	}
	from := cb.state
	cb.state = s
	cb.changedAt = cb.now()
	if cb.onStateChange != nil {
		go cb.onStateChange(from, s)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// SetStateChangeCallback 状态变化回调（异步执行）
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		State:           cb.state.String(),
		Failures:        cb.failures,
		TripCount:       cb.trips,
		LastStateChange: cb.changedAt,
	}
}

// CircuitBreakerStats 熔断器统计
type CircuitBreakerStats struct {
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	TripCount       int64     `json:"trip_count"`
	LastStateChange time.Time `json:"last_state_change"`
}
