package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/pipeline"
)

func TestLifecycleHooksMergeFansOut(t *testing.T) {
	var calls []string
	a := pipeline.LifecycleHooks{
		OnChainEnd: func(_ context.Context, e *pipeline.ChainEvent) {
			calls = append(calls, "a:"+e.Chain)
		},
	}
	b := pipeline.LifecycleHooks{
		OnChainEnd: func(_ context.Context, e *pipeline.ChainEvent) {
			calls = append(calls, "b:"+e.Chain)
		},
		OnLinkEnd: func(_ context.Context, e *pipeline.LinkEvent) {
			calls = append(calls, "b:"+e.Chain+"/"+e.Link)
		},
	}

	ch := pipeline.New("merged", pipeline.WithHooks(a.Merge(b)))
	ch.AddLink("only", pipeline.LinkFunc(func(_ context.Context, c pipeline.Context) (pipeline.Context, error) {
		return c, nil
	}))

	_, err := ch.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"b:merged/only", "a:merged", "b:merged"}, calls)
}

func TestLifecycleHooksMergeKeepsSingleSide(t *testing.T) {
	ran := false
	a := pipeline.LifecycleHooks{
		OnChainStart: func(context.Context, *pipeline.ChainEvent) { ran = true },
	}

	merged := a.Merge(pipeline.LifecycleHooks{})
	require.NotNil(t, merged.OnChainStart)
	require.Nil(t, merged.OnChainEnd)

	merged.OnChainStart(context.Background(), &pipeline.ChainEvent{})
	require.True(t, ran)
}
