package tcpserver

import (
	"sync"
	"testing"
	"time"
)

func TestConnSlots(t *testing.T) {
	t.Run("配额用尽后拒绝", func(t *testing.T) {
		l := newConnSlots(3)
		for i := 0; i < 3; i++ {
			if !l.TryAcquire() {
				t.Fatalf("第%d次获取失败", i+1)
			}
		}
		if l.TryAcquire() {
			t.Fatal("第4次获取应该失败")
		}
		l.Release()
		if !l.TryAcquire() {
			t.Fatal("释放后获取失败")
		}
		if got := l.Stats().RejectedTotal; got != 1 {
			t.Errorf("期望拒绝1次，实际: %d", got)
		}
	})

	t.Run("并发获取不超额", func(t *testing.T) {
		l := newConnSlots(10)
		var wg sync.WaitGroup
		var mu sync.Mutex
		ok := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.TryAcquire() {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if ok != 10 {
			t.Fatalf("期望成功10个，实际: %d", ok)
		}
		stats := l.Stats()
		if stats.Utilization != 1.0 || stats.RejectedTotal != 40 {
			t.Errorf("统计错误: %+v", stats)
		}
	})
}

func TestAcceptRate(t *testing.T) {
	t.Run("令牌桶", func(t *testing.T) {
		r := newAcceptRate(10, 20)
		for i := 0; i < 20; i++ {
			if !r.Allow() {
				t.Fatalf("突发第%d个被拒绝", i+1)
			}
		}
		if r.Allow() {
			t.Fatal("第21个应该被拒绝")
		}
		time.Sleep(150 * time.Millisecond)
		if !r.Allow() {
			t.Fatal("等待补充令牌后应该放行")
		}
		stats := r.Stats()
		if stats.AllowedTotal != 21 || stats.RejectedTotal != 1 {
			t.Errorf("统计错误: %+v", stats)
		}
	})

	t.Run("速率为0不限速", func(t *testing.T) {
		r := newAcceptRate(0, 0)
		for i := 0; i < 1000; i++ {
			if !r.Allow() {
				t.Fatal("不应限速")
			}
		}
	})
}
