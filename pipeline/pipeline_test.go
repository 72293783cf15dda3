package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
)

type funcNode struct {
	name string
	fn   func([]*core.Candidate) ([]*core.Candidate, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Kind() Kind   { return KindRank }
func (n *funcNode) Process(_ context.Context, _ *core.RankContext, c []*core.Candidate) ([]*core.Candidate, error) {
	return n.fn(c)
}

func TestPipeline_Run(t *testing.T) {
	drop := &funcNode{name: "drop-first", fn: func(c []*core.Candidate) ([]*core.Candidate, error) { return c[1:], nil }}
	p := &Pipeline{Nodes: []Node{drop, drop}}

	in := []*core.Candidate{
		core.NewCandidate(0, &core.BuyRequest{ID: "a"}),
		core.NewCandidate(1, &core.BuyRequest{ID: "b"}),
		core.NewCandidate(2, &core.BuyRequest{ID: "c"}),
	}
	out, err := p.Run(context.Background(), &core.RankContext{}, in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].Request.ID)
}

func TestPipeline_RunStopsOnError(t *testing.T) {
	boom := &funcNode{name: "boom", fn: func([]*core.Candidate) ([]*core.Candidate, error) { return nil, errors.New("boom") }}
	called := false
	after := &funcNode{name: "after", fn: func(c []*core.Candidate) ([]*core.Candidate, error) { called = true; return c, nil }}

	_, err := (&Pipeline{Nodes: []Node{boom, after}}).Run(context.Background(), &core.RankContext{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, called)
}

func TestPipeline_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	noop := &funcNode{name: "noop", fn: func(c []*core.Candidate) ([]*core.Candidate, error) { return c, nil }}
	_, err := (&Pipeline{Nodes: []Node{noop}}).Run(ctx, &core.RankContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_BuildPipeline(t *testing.T) {
	f := NewNodeFactory()
	f.Register("rank.noop", func(map[string]interface{}) (Node, error) {
		return &funcNode{name: "noop", fn: func(c []*core.Candidate) ([]*core.Candidate, error) { return c, nil }}, nil
	})

	cfg := &Config{Nodes: []NodeConfig{{Type: "rank.noop"}}}
	p, err := cfg.BuildPipeline(f)
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 1)

	cfg.Nodes = append(cfg.Nodes, NodeConfig{Type: "rank.unknown"})
	_, err = cfg.BuildPipeline(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank.noop")
	assert.Equal(t, []string{"rank.noop"}, f.SupportedTypes())
}
