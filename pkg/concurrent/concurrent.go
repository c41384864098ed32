package concurrent

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Invoke runs every action in its own goroutine and waits for all of them.
// The context handed to the actions is cancelled as soon as one of them fails;
// the first error is returned.
func Invoke(ctx context.Context, actions ...func(context.Context) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, action := range actions {
		group.Go(func() error {
			return action(groupCtx)
		})
	}
	return group.Wait()
}

// ParallelMust runs every action in its own goroutine and waits for all of them.
func ParallelMust(actions ...func()) {
	wg := sync.WaitGroup{}
	wg.Add(len(actions))
	for _, action := range actions {
		go func(action func()) {
			defer wg.Done()
			action()
		}(action)
	}
	wg.Wait()
}
