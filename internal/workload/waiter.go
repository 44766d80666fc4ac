package workload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	droverrors "github.com/droverproject/drover/pkg/errors"
)

// DefaultPollInterval is how often the convergence helpers re-query
// status. Tests inject shorter intervals.
const DefaultPollInterval = 15 * time.Second

// WaitTarget describes an aggregate status the caller wants a set of
// applications to reach. Timeout must be finite and positive; every wait
// terminates.
type WaitTarget struct {
	Model    string
	Apps     []string
	Workload []string
	Agent    []string
	// Units restricts convergence to a subset of unit names. Empty means
	// every unit of the application.
	Units   []string
	Timeout time.Duration
	// Interval overrides DefaultPollInterval when positive.
	Interval time.Duration
	// Rollout tolerates applications that are not visible yet, for the
	// window right after a declarative deploy. Outside that window a
	// missing application is an immediate failure.
	Rollout bool
}

func (t WaitTarget) interval() time.Duration {
	if t.Interval > 0 {
		return t.Interval
	}
	return DefaultPollInterval
}

// WaitUntilDesired polls each application until every tracked unit's
// workload and agent status are simultaneously inside the desired sets,
// or the budget elapses. The returned error is a TimeoutError when the
// budget ran out and a NotFoundError when a tracked application does not
// exist (strict mode). All pollers are cancelled and joined before
// return, on every path.
func WaitUntilDesired(ctx context.Context, reader StatusReader, target WaitTarget) error {
	if target.Timeout <= 0 {
		return droverrors.NewValidationError("timeout", "wait timeout must be positive", nil)
	}
	if len(target.Apps) == 0 {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	results := make(chan error, len(target.Apps))
	var wg sync.WaitGroup
	defer wg.Wait()

	for _, app := range target.Apps {
		wg.Add(1)
		go func(app string) {
			defer wg.Done()
			results <- pollApplication(waitCtx, reader, app, target)
		}(app)
	}

	op := fmt.Sprintf("applications %v to reach desired status", target.Apps)
	for pending := len(target.Apps); pending > 0; pending-- {
		err := <-results
		if err == nil {
			continue
		}
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			return droverrors.NewTimeoutError(op, target.Timeout, err)
		}
		return err
	}
	return nil
}

func pollApplication(ctx context.Context, reader StatusReader, app string, target WaitTarget) error {
	ticker := time.NewTicker(target.interval())
	defer ticker.Stop()

	for {
		application, err := reader.GetApplication(ctx, app, target.Model)
		switch {
		case err == nil:
			if unitsConverged(application, target) {
				return nil
			}
		case droverrors.IsNotFound(err) && target.Rollout:
			// Not visible yet; keep polling inside the budget.
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func unitsConverged(app Application, target WaitTarget) bool {
	tracked := 0
	for _, unit := range app.Units {
		if len(target.Units) > 0 && !contains(target.Units, unit.Name) {
			continue
		}
		tracked++
		if !contains(target.Workload, unit.WorkloadStatus) {
			return false
		}
		if !contains(target.Agent, unit.AgentStatus) {
			return false
		}
	}
	return tracked > 0
}

// WaitAppsGone polls until none of the named applications are visible in
// the model, or the budget elapses. Used by teardown flows; a visible
// application is simply "not yet gone", never an error.
func WaitAppsGone(ctx context.Context, reader StatusReader, model string, apps []string, timeout, interval time.Duration) error {
	if timeout <= 0 {
		return droverrors.NewValidationError("timeout", "wait timeout must be positive", nil)
	}
	if len(apps) == 0 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	op := fmt.Sprintf("applications %v to disappear", apps)
	for {
		remaining := 0
		for _, app := range apps {
			_, err := reader.GetApplication(waitCtx, app, model)
			switch {
			case err == nil:
				remaining++
			case droverrors.IsNotFound(err):
				// Gone, as desired.
			case errors.Is(err, context.DeadlineExceeded):
				return droverrors.NewTimeoutError(op, timeout, err)
			default:
				return err
			}
		}
		if remaining == 0 {
			return nil
		}

		select {
		case <-waitCtx.Done():
			return droverrors.NewTimeoutError(op, timeout, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}
