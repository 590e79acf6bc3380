package athena

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 40
	defaultPollDelay   = 500 * time.Millisecond
)

// StatusAPI is the part of the Athena API the poller needs.
type StatusAPI interface {
	GetQueryExecution(ctx context.Context, in *awsathena.GetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error)
}

// TimeoutError is returned when a query is still running after the attempt
// bound. The wall-clock bound is therefore attempts times the poll delay.
type TimeoutError struct {
	ExecutionID string
	Attempts    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("athena: query %s not finished after %d polls", e.ExecutionID, e.Attempts)
}

// JobFailedError is returned when a query reaches a terminal failure state.
type JobFailedError struct {
	ExecutionID string
	State       string
	Reason      string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("athena: query %s %s: %s", e.ExecutionID, e.State, e.Reason)
}

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	maxAttempts int
	delay       time.Duration
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		maxAttempts: defaultMaxAttempts,
		delay:       defaultPollDelay,
	}
}

// WithMaxAttempts overrides the number of status checks before giving up.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithDelay overrides the fixed delay between status checks.
func WithDelay(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// Await polls the execution at a fixed delay until it succeeds, fails, or
// the attempt bound is reached. There is no backoff. A cancelled context
// aborts the wait early.
func Await(ctx context.Context, api StatusAPI, executionID string, opts ...PollOption) error {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		out, err := api.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(executionID),
		})
		if err != nil {
			return eris.Wrapf(err, "athena: get query execution %s", executionID)
		}

		var state types.QueryExecutionState
		var reason string
		if out.QueryExecution != nil && out.QueryExecution.Status != nil {
			state = out.QueryExecution.Status.State
			reason = aws.ToString(out.QueryExecution.Status.StateChangeReason)
		}

		switch state {
		case types.QueryExecutionStateSucceeded:
			return nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			return &JobFailedError{ExecutionID: executionID, State: string(state), Reason: reason}
		}

		zap.L().Debug("athena: waiting for query",
			zap.String("execution_id", executionID),
			zap.String("state", string(state)),
			zap.Int("attempt", attempt),
		)

		if attempt == cfg.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return eris.Wrapf(ctx.Err(), "athena: wait for query %s", executionID)
		case <-time.After(cfg.delay):
		}
	}

	return &TimeoutError{ExecutionID: executionID, Attempts: cfg.maxAttempts}
}
