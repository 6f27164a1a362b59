package db

import "sync"

// ActiveTable holds the name of the table currently taking sign-ups.
// It is reassigned only by rotation.
type ActiveTable struct {
	mu   sync.RWMutex
	name string
}

func NewActiveTable(name string) *ActiveTable {
	return &ActiveTable{name: name}
}

func (a *ActiveTable) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

func (a *ActiveTable) Set(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = name
}
