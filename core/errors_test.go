package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rushteam/moodkit/pkg/utils"
)

func labelOf(v string) utils.Label { return utils.Label{Value: v, Source: "test"} }

func TestDomainError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("rank: %w", NewModelUnavailableError(cause, "classify batch of %d", 3))

	assert.True(t, IsDomainError(err))
	assert.True(t, IsModelUnavailable(err))
	assert.True(t, IsUnavailable(err))
	assert.False(t, IsInvalidInput(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "rank: model: classify batch of 3: connection refused", err.Error())

	de := GetDomainError(err)
	if assert.NotNil(t, de) {
		assert.Equal(t, ErrorCodeUnavailable, de.Code)
		assert.Equal(t, ModuleModel, de.Module)
	}

	inv := NewInvalidInputError(ModuleRank, "max_results must be positive, got %d", 0)
	assert.True(t, IsInvalidInput(inv))
	assert.Equal(t, "rank: max_results must be positive, got 0", inv.Error())

	cv := NewContractViolationError(ModuleInference, "missing probability")
	assert.True(t, IsContractViolation(cv))
	assert.False(t, IsModelUnavailable(cv))

	// 非模型模块的 UNAVAILABLE 不是模型不可用
	storeDown := NewDomainError(ModuleStore, ErrorCodeUnavailable, "redis down")
	assert.True(t, IsUnavailable(storeDown))
	assert.False(t, IsModelUnavailable(storeDown))

	assert.Nil(t, GetDomainError(nil))
	assert.Nil(t, GetDomainError(errors.New("plain")))
}
