package handler

import (
	"sort"
	"sync"
	"time"
)

type TenantStatus struct {
	TenantId    string    `json:"tenantId"`
	Healthy     bool      `json:"healthy"`
	Error       string    `json:"error,omitempty"`
	RequestedBy string    `json:"requestedBy,omitempty"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// StatusBoard keeps the outcome of the latest status check of each tenant.
type StatusBoard struct {
	mu       sync.RWMutex
	statuses map[string]TenantStatus
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{statuses: make(map[string]TenantStatus)}
}

func (b *StatusBoard) Record(tenantId string, requestedBy string, err error) {
	status := TenantStatus{
		TenantId:    tenantId,
		Healthy:     err == nil,
		RequestedBy: requestedBy,
		CheckedAt:   time.Now().UTC(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[tenantId] = status
}

func (b *StatusBoard) Snapshot() []TenantStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TenantStatus, 0, len(b.statuses))
	for _, s := range b.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantId < out[j].TenantId })
	return out
}
