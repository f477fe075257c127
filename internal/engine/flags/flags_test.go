package flags_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/engine/flags"
)

func TestExchange_RequestThenProvide(t *testing.T) {
	ex := flags.NewExchange()

	require.NoError(t, ex.Request("cc"))
	assert.Equal(t, domain.FlagRequested, ex.Stage("cc"))
	require.NoError(t, ex.Provide("cc", "clang"))
	assert.Equal(t, domain.FlagProvided, ex.Stage("cc"))

	v, err := ex.Consume(domain.FlagSpec{Key: "cc"})
	require.NoError(t, err)
	assert.Equal(t, "clang", v)
	assert.Equal(t, domain.FlagConsumed, ex.Stage("cc"))
}

func TestExchange_ProvideBeforeRequest(t *testing.T) {
	ex := flags.NewExchange()

	require.NoError(t, ex.Provide("cc", "gcc"))
	require.NoError(t, ex.Request("cc"))

	v, err := ex.Consume(domain.FlagSpec{Key: "cc"})
	require.NoError(t, err)
	assert.Equal(t, "gcc", v)
}

func TestExchange_Default(t *testing.T) {
	ex := flags.NewExchange()
	require.NoError(t, ex.Request("opt"))

	v, err := ex.Consume(domain.FlagSpec{Key: "opt", Default: "-O2", HasDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "-O2", v)
}

func TestExchange_RequiredMissing(t *testing.T) {
	ex := flags.NewExchange()
	require.NoError(t, ex.Request("k"))

	_, err := ex.Consume(domain.FlagSpec{Key: "k"})
	require.ErrorIs(t, err, domain.ErrRequiredFlagMissing)
}

func TestExchange_DuplicateRequest(t *testing.T) {
	ex := flags.NewExchange()
	require.NoError(t, ex.Request("k"))
	require.ErrorIs(t, ex.Request("k"), domain.ErrDuplicateFlagRequest)

	require.NoError(t, ex.Provide("k", 1))
	_, err := ex.Consume(domain.FlagSpec{Key: "k"})
	require.NoError(t, err)
	require.ErrorIs(t, ex.Request("k"), domain.ErrDuplicateFlagRequest)
}

func TestExchange_DuplicateProvision(t *testing.T) {
	ex := flags.NewExchange()
	require.NoError(t, ex.Provide("k", 1))
	require.ErrorIs(t, ex.Provide("k", 2), domain.ErrDuplicateFlagProvision)
}

func TestExchange_DoubleConsume(t *testing.T) {
	ex := flags.NewExchange()
	require.NoError(t, ex.Request("k"))
	_, err := ex.Consume(domain.FlagSpec{Key: "k", Default: 1, HasDefault: true})
	require.NoError(t, err)

	_, err = ex.Consume(domain.FlagSpec{Key: "k", Default: 1, HasDefault: true})
	require.ErrorIs(t, err, domain.ErrFlagAlreadyConsumed)

	_, err = ex.Consume(domain.FlagSpec{Key: "never"})
	require.ErrorIs(t, err, domain.ErrFlagNotRequested)
}
