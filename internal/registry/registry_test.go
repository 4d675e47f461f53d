package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pqodbc/internal/registry"
)

func TestRegisterAndValid(t *testing.T) {
	r := registry.New()
	h := r.Register()
	require.True(t, r.Valid(h))
	require.Equal(t, 1, r.Len())
}

func TestReleaseMarksInvalid(t *testing.T) {
	r := registry.New()
	h := r.Register()
	r.Release(h)
	require.False(t, r.Valid(h))
	require.Equal(t, 0, r.Len())
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := registry.New()
	h := r.Register()
	r.Release(h)
	require.NotPanics(t, func() { r.Release(h) })
}

func TestHandlesAreDistinct(t *testing.T) {
	r := registry.New()
	a := r.Register()
	b := r.Register()
	require.NotEqual(t, a, b)
	require.Equal(t, 2, r.Len())
}
