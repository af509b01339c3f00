package server

import (
	"sync"

	"github.com/google/uuid"
)

// ConnManager tracks open sockets so shutdown can close them all.
type ConnManager struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*ClientConn
}

func NewConnManager() *ConnManager {
	return &ConnManager{conns: make(map[uuid.UUID]*ClientConn)}
}

func (m *ConnManager) Add(c *ClientConn) uuid.UUID {
	id := uuid.New()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[id] = c
	return id
}

func (m *ConnManager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

func (m *ConnManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// CloseAll closes every tracked connection. Each connection's pumps then
// run their own cleanup.
func (m *ConnManager) CloseAll() {
	m.mu.RLock()
	conns := make([]*ClientConn, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
}
