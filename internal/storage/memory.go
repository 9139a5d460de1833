package storage

import (
	"context"
	"sync"
	"time"

	"github.com/taoyao-code/jt808-server/internal/storage/models"
)

// MemoryTerminalRepo 进程内实现，未启用数据库时使用
type MemoryTerminalRepo struct {
	mu        sync.RWMutex
	terminals map[string]models.Terminal
}

func NewMemoryTerminalRepo() *MemoryTerminalRepo {
	return &MemoryTerminalRepo{terminals: make(map[string]models.Terminal)}
}

func (r *MemoryTerminalRepo) SaveRegistration(_ context.Context, t *models.Terminal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := *t
	rec.UpdatedAt = time.Now()
	r.terminals[t.Phone] = rec
	return nil
}

func (r *MemoryTerminalRepo) GetTerminal(_ context.Context, phone string) (*models.Terminal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.terminals[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *MemoryTerminalRepo) FindByVehicle(_ context.Context, plate, vin string) (*models.Terminal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.terminals {
		p, v := t.VehicleKey()
		if (plate != "" && p == plate) || (vin != "" && v == vin) {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTerminalRepo) MarkAuthenticated(_ context.Context, phone, imei, softwareVersion string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.terminals[phone]
	if !ok {
		return ErrNotFound
	}
	if imei != "" {
		t.IMEI = imei
	}
	if softwareVersion != "" {
		t.SoftwareVersion = softwareVersion
	}
	t.LastAuthAt = &at
	t.UpdatedAt = time.Now()
	r.terminals[phone] = t
	return nil
}

func (r *MemoryTerminalRepo) DeleteTerminal(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.terminals[phone]; !ok {
		return ErrNotFound
	}
	delete(r.terminals, phone)
	return nil
}
