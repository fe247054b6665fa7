// Package memory provides an in-process condition repository.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/positions/app"
	"github.com/fd1az/condrouter/business/positions/domain"
	"github.com/fd1az/condrouter/internal/apperror"
)

var _ app.ConditionRepository = (*ConditionRepository)(nil)

// ConditionRepository keeps conditions in a map.
type ConditionRepository struct {
	mu         sync.RWMutex
	conditions map[common.Hash]*domain.Condition
}

func NewConditionRepository() *ConditionRepository {
	return &ConditionRepository{conditions: make(map[common.Hash]*domain.Condition)}
}

func (r *ConditionRepository) Get(_ context.Context, id common.Hash) (*domain.Condition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conditions[id]
	if !ok {
		return nil, apperror.New(apperror.CodeConditionNotPrepared, apperror.WithContext(id.Hex()))
	}
	return c.Clone(), nil
}

func (r *ConditionRepository) Create(_ context.Context, c *domain.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conditions[c.ID]; ok {
		return apperror.New(apperror.CodeConditionAlreadyPrepared, apperror.WithContext(c.ID.Hex()))
	}
	r.conditions[c.ID] = c.Clone()
	return nil
}

func (r *ConditionRepository) Update(_ context.Context, c *domain.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conditions[c.ID]; !ok {
		return apperror.New(apperror.CodeConditionNotPrepared, apperror.WithContext(c.ID.Hex()))
	}
	r.conditions[c.ID] = c.Clone()
	return nil
}
