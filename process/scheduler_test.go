package process_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/process"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

func appendNative(box *value.Box, s string) vm.Native {
	return vm.Native{Fn: func(_ context.Context, _ *vm.Env, _ *graphstore.Graph) (value.Value, error) {
		box.Update(func(v value.Value) value.Value {
			l, _ := v.AsList()
			return value.ListVal(l.Push(value.Str(s)))
		})
		return value.Void, nil
	}}
}

// TestScenarioS3CooperativeScheduling matches spec §8 S3: f1 sleeps 10ms
// then appends "A"; f2 sleeps 5ms then appends "B". Both spawned and
// awaited at top level; final order is ["B", "A"].
func TestScenarioS3CooperativeScheduling(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	shared := value.NewBox(value.ListVal(value.NewList()))

	sched := process.New(g, nil)
	f1 := sched.SpawnRoot(vm.Instructions{
		vm.SleepForDuration{Duration: 10 * time.Millisecond},
		appendNative(shared, "A"),
	}, "", "f1")
	f2 := sched.SpawnRoot(vm.Instructions{
		vm.SleepForDuration{Duration: 5 * time.Millisecond},
		appendNative(shared, "B"),
	}, "", "f2")

	deadline, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	sched.RunToCompletion(deadline)

	p1, ok := sched.Get(f1)
	require.True(t, ok)
	assert.Equal(t, process.Done, p1.State)
	p2, ok := sched.Get(f2)
	require.True(t, ok)
	assert.Equal(t, process.Done, p2.State)

	final, _ := shared.Get().AsList()
	got := make([]string, final.Len())
	for i, v := range final.Slice() {
		s, _ := v.AsString()
		got[i] = s
	}
	assert.Equal(t, []string{"B", "A"}, got)
}

// TestScenarioS4AwaitErrorPropagation matches spec §8 S4: bad() divides
// by zero; main spawns bad and awaits. main terminates errored with an
// AwaitError whose inner kind is TypeError.
func TestScenarioS4AwaitErrorPropagation(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	sched := process.New(g, nil)

	badBody := vm.Instructions{vm.Native{Fn: func(_ context.Context, _ *vm.Env, _ *graphstore.Graph) (value.Value, error) {
		_, err := value.Div(value.IntNum(1), value.IntNum(0))
		return value.Value{}, err
	}}}
	mainBody := vm.Instructions{
		vm.Spawn{Body: badBody, ResultType: "void"},
		vm.Await{},
	}
	main := sched.SpawnRoot(mainBody, "", "main")

	sched.RunToCompletion(ctx)

	p, ok := sched.Get(main)
	require.True(t, ok)
	assert.Equal(t, process.Errored, p.State)
	require.Error(t, p.Err)

	var stofErr *stoferr.Error
	require.True(t, errors.As(p.Err, &stofErr))
	assert.Equal(t, stoferr.Await, stofErr.Kind())

	inner := errors.Unwrap(stofErr)
	var innerErr *stoferr.Error
	require.True(t, errors.As(inner, &innerErr))
	assert.Equal(t, stoferr.Type, innerErr.Kind())
}

// TestSleepForZeroYieldsOneTick matches the §8 boundary behavior: a
// zero-duration sleep still suspends the process for exactly one tick
// rather than completing inline.
func TestSleepForZeroYieldsOneTick(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	sched := process.New(g, nil)

	pid := sched.SpawnRoot(vm.Instructions{
		vm.SleepForDuration{Duration: 0},
		vm.Literal{Value: value.Int(1)},
	}, "", "f")

	sched.Tick(ctx)
	p, _ := sched.Get(pid)
	assert.NotEqual(t, process.Done, p.State, "process must not complete within the same tick it slept in")

	sched.RunToCompletion(ctx)
	p, _ = sched.Get(pid)
	assert.Equal(t, process.Done, p.State)
}

// TestSchedulerFairness matches spec invariant 6: with many ready
// processes, none waits longer than O(P) instructions for a tick, which
// for this test means every process makes some progress within a
// bounded number of ticks rather than one process starving the rest.
func TestSchedulerFairness(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	sched := process.New(g, nil)

	const n = 20
	counters := make([]*value.Box, n)
	var pids []string
	for i := 0; i < n; i++ {
		counters[i] = value.NewBox(value.Int(0))
		box := counters[i]
		body := vm.Instructions{}
		for j := 0; j < 50; j++ {
			body = append(body, vm.Native{Fn: func(_ context.Context, _ *vm.Env, _ *graphstore.Graph) (value.Value, error) {
				box.Update(func(v value.Value) value.Value {
					n, _ := v.AsNumber()
					sum, _ := value.Add(n, value.IntNum(1))
					return value.Num(sum)
				})
				return value.Void, nil
			}})
		}
		pids = append(pids, sched.SpawnRoot(body, "", "counter"))
	}

	sched.Tick(ctx)
	for i, box := range counters {
		n, _ := box.Get().AsNumber()
		assert.Greater(t, n.Int64(), int64(0), "process %d made no progress on the first tick", i)
	}
	sched.RunToCompletion(ctx)
	for _, pid := range pids {
		p, _ := sched.Get(pid)
		assert.Equal(t, process.Done, p.State)
	}
}
