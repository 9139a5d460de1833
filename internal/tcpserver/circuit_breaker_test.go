package tcpserver

import (
	"testing"
	"time"
)

// fakeClock 可手动推进的时钟
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, timeout time.Duration) (*CircuitBreaker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker(threshold, timeout)
	cb.now = clk.now
	return cb, clk
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("连续故障触发熔断并恢复", func(t *testing.T) {
		cb, clk := newTestBreaker(3, time.Minute)
		for i := 0; i < 3; i++ {
			cb.Failure()
		}
		if cb.State() != StateOpen {
			t.Fatalf("3次故障后应为Open，实际: %v", cb.State())
		}
		if err := cb.Allow(); err != ErrCircuitOpen {
			t.Fatalf("熔断期应拒绝，实际: %v", err)
		}

		clk.advance(time.Minute)
		if err := cb.Allow(); err != nil {
			t.Fatalf("超时后应放行试探: %v", err)
		}
		if cb.State() != StateHalfOpen {
			t.Fatalf("应进入HalfOpen，实际: %v", cb.State())
		}
		for i := 0; i < halfOpenProbes; i++ {
			cb.Success()
		}
		if cb.State() != StateClosed {
			t.Fatalf("试探成功后应恢复Closed，实际: %v", cb.State())
		}
	})

	t.Run("成功重置故障计数", func(t *testing.T) {
		cb, _ := newTestBreaker(3, time.Minute)
		cb.Failure()
		cb.Failure()
		cb.Success()
		cb.Failure()
		if cb.State() != StateClosed {
			t.Fatalf("非连续故障不应熔断")
		}
	})

	t.Run("半开状态故障立即熔断", func(t *testing.T) {
		cb, clk := newTestBreaker(2, time.Second)
		cb.Failure()
		cb.Failure()
		clk.advance(2 * time.Second)
		_ = cb.Allow()
		cb.Failure()
		if cb.State() != StateOpen {
			t.Fatalf("HalfOpen故障应回到Open，实际: %v", cb.State())
		}
		if got := cb.Stats().TripCount; got != 2 {
			t.Errorf("期望熔断2次，实际: %d", got)
		}
	})

	t.Run("状态变化回调", func(t *testing.T) {
		type change struct{ from, to State }
		ch := make(chan change, 2)
		cb, _ := newTestBreaker(1, time.Second)
		cb.SetStateChangeCallback(func(from, to State) { ch <- change{from, to} })
		cb.Failure()
		select {
		case c := <-ch:
			if c.from != StateClosed || c.to != StateOpen {
				t.Errorf("回调参数错误: %+v", c)
			}
		case <-time.After(time.Second):
			t.Fatal("状态变化回调未触发")
		}
	})
}
