package step

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/model"
)

type probeStep struct {
	Base
	skips int
}

func (s *probeStep) Skip(ctx context.Context) model.Result {
	s.skips++
	return model.Skipped("already present")
}

func (s *probeStep) Run(ctx context.Context, status Status) model.Result {
	return model.Completed()
}

func TestBaseIdentity(t *testing.T) {
	t.Parallel()

	s := &probeStep{Base: NewBase("add units", "Add new units to the control plane")}
	require.Equal(t, "add units", s.Name())
	require.Equal(t, "Add new units to the control plane", s.Description())
}

func TestSkipIsRepeatable(t *testing.T) {
	t.Parallel()

	s := &probeStep{Base: NewBase("probe", "probe")}
	first := s.Skip(context.Background())
	second := s.Skip(context.Background())

	require.Equal(t, first, second)
	require.Equal(t, 2, s.skips)
}

func TestNopStatusAcceptsUpdates(t *testing.T) {
	t.Parallel()

	var status Status = NopStatus{}
	status.Update("waiting for convergence")
}
