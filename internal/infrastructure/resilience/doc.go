/*
Package resilience provides the circuit breaker guarding the upstream
generator.

# Usage

	breaker := resilience.New("generator", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	body, err := resilience.Call(ctx, breaker, func(ctx context.Context) (io.ReadCloser, error) {
		return open(ctx)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

Calls cancelled by their caller count as successes, and a ctx that is done
before the call is not counted at all.
*/
package resilience
