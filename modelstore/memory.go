package modelstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/carbocation/pgsinherit/pgs"
)

type Memory struct {
	mu     sync.RWMutex
	models map[string]*pgs.Model
}

func NewMemory(models ...*pgs.Model) *Memory {
	m := &Memory{models: make(map[string]*pgs.Model)}
	for _, model := range models {
		m.models[model.ID] = model
	}

	return m
}

func (m *Memory) Get(ctx context.Context, id string) (*pgs.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model, exists := m.models[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", pgs.ErrModelNotFound, id)
	}

	return model, nil
}

func (m *Memory) Put(ctx context.Context, model *pgs.Model) error {
	if model.ID == "" {
		return fmt.Errorf("model has no id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.models[model.ID] = model

	return nil
}
