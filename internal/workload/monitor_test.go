package workload

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusMonitorDeliversSnapshots(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return activeIdleApp(name), nil
	})

	var mu sync.Mutex
	var seen []StatusSnapshot
	monitor := StartStatusMonitor(context.Background(), reader, "controller", []string{"openstack"}, 5*time.Millisecond, func(s StatusSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, time.Second, 5*time.Millisecond)

	monitor.Stop()

	mu.Lock()
	first := seen[0]
	mu.Unlock()
	require.Equal(t, "openstack", first.App)
	require.Len(t, first.Units, 1)
}

func TestStatusMonitorStopHaltsSinkCalls(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return activeIdleApp(name), nil
	})

	var mu sync.Mutex
	count := 0
	monitor := StartStatusMonitor(context.Background(), reader, "controller", []string{"openstack"}, time.Millisecond, func(StatusSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count > 0
	}, time.Second, time.Millisecond)

	monitor.Stop()
	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	final := count
	mu.Unlock()
	require.Equal(t, after, final)
}

func TestStatusMonitorStopIsIdempotent(t *testing.T) {
	t.Parallel()

	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		return activeIdleApp(name), nil
	})

	monitor := StartStatusMonitor(context.Background(), reader, "controller", []string{"openstack"}, time.Millisecond, nil)
	monitor.Stop()
	monitor.Stop()
}

func TestStatusMonitorIgnoresReaderErrors(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	polls := 0
	reader := readerFunc(func(ctx context.Context, name, model string) (Application, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		return Application{}, context.DeadlineExceeded
	})

	monitor := StartStatusMonitor(context.Background(), reader, "controller", []string{"openstack"}, time.Millisecond, func(StatusSnapshot) {
		t.Error("sink must not receive snapshots for failed reads")
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return polls >= 2
	}, time.Second, time.Millisecond)
	monitor.Stop()
}
