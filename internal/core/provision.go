package core

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"
)

const taskQueue = "rds-provisioning"

// skipWorkflowKey is a context key that suppresses workflow execution.
// Activities running inside a workflow reuse the same services; the
// workflow already owns orchestration, so nested starts must be no-ops.
type skipWorkflowKey struct{}

// WithSkipWorkflow returns a context that causes startWorkflow to be a no-op.
func WithSkipWorkflow(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipWorkflowKey{}, true)
}

// workflowID builds a human-readable Temporal workflow ID from a resource
// type prefix and the resource's unique ID.
func workflowID(prefix, id string) string {
	return fmt.Sprintf("%s-%s", prefix, id)
}

func startWorkflow(ctx context.Context, tc temporalclient.Client, workflowName, wfID string, arg any) error {
	if v, _ := ctx.Value(skipWorkflowKey{}).(bool); v {
		return nil
	}
	_, err := tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        wfID,
		TaskQueue: taskQueue,
	}, workflowName, arg)
	return err
}

// TaskQueue is the Temporal task queue shared by the API (starter) and the
// worker (executor).
func TaskQueue() string { return taskQueue }
