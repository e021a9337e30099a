// Package workflow contains the Temporal workflows driving the database
// lifecycle. Workflows only sequence activities; every provider call and
// record mutation happens in the activity layer.
package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

const (
	// watchInterval is the backoff between status polls.
	watchInterval = 60 * time.Second
	// maxWatchAttempts bounds the poll loop; exhaustion settles the record
	// in monitoring_failed instead of polling forever.
	maxWatchAttempts = 5
)

// ProvisionDatabaseWorkflow drives a queued database record to a settled
// state: provider creation call, status polling until available, then
// finalization (schema bootstrap, credential distribution).
func ProvisionDatabaseWorkflow(ctx workflow.Context, databaseID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			// Provider rejections need identifier regeneration or operator
			// review, not blind retries.
			NonRetryableErrorTypes: []string{"ProvisioningError"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	if err := workflow.ExecuteActivity(ctx, "CreateInstance", databaseID).Get(ctx, nil); err != nil {
		return err
	}

	decision, err := runWatch(ctx, model.WatchParams{Kind: model.WatchKindDatabase, ID: databaseID})
	if err != nil {
		return err
	}

	if decision != nil && decision.Captured {
		finalizeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			// Schema scripts can run for a while on a cold instance.
			StartToCloseTimeout: 10 * time.Minute,
			RetryPolicy: &temporal.RetryPolicy{
				MaximumAttempts:    3,
				InitialInterval:    5 * time.Second,
				MaximumInterval:    1 * time.Minute,
				BackoffCoefficient: 2.0,
			},
		})
		return workflow.ExecuteActivity(finalizeCtx, "FinalizeDatabase", databaseID).Get(ctx, nil)
	}
	return nil
}

// ProvisionClientWorkflow provisions one database per active subscribed
// service. The heavy lifting happens in the activity, which starts a
// ProvisionDatabaseWorkflow per created record; this workflow only carries
// the per-service result map as its outcome.
func ProvisionClientWorkflow(ctx workflow.Context, clientID string) (map[string]model.ProvisionResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    5 * time.Second,
			MaximumInterval:    1 * time.Minute,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var results map[string]model.ProvisionResult
	if err := workflow.ExecuteActivity(ctx, "ProvisionClientDatabases", clientID).Get(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteDatabaseWorkflow requests provider deletion and watches until the
// provider stops reporting the instance.
func DeleteDatabaseWorkflow(ctx workflow.Context, params core.DeleteDatabaseParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	if err := workflow.ExecuteActivity(ctx, "DeleteInstance", params).Get(ctx, nil); err != nil {
		return err
	}

	_, err := runWatch(ctx, model.WatchParams{Kind: model.WatchKindDatabase, ID: params.DatabaseID})
	return err
}

// runWatch executes the watch as a child workflow and returns its terminal
// decision.
func runWatch(ctx workflow.Context, params model.WatchParams) (*core.WatchDecision, error) {
	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID: fmt.Sprintf("watch-%s-%s", params.Kind, params.ID),
	})
	var decision core.WatchDecision
	if err := workflow.ExecuteChildWorkflow(childCtx, WatchInstanceWorkflow, params).Get(ctx, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// WatchInstanceWorkflow polls one record's provider state. Each run performs
// a single reconcile pass; a non-terminal observation sleeps the backoff
// interval and continues as new with the attempt counter advanced. The
// attempt budget survives continue-as-new because it travels in the
// parameters, and exhausting it fails the workflow after settling the record
// in monitoring_failed.
func WatchInstanceWorkflow(ctx workflow.Context, params model.WatchParams) (*core.WatchDecision, error) {
	logger := workflow.GetLogger(ctx)
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	if params.Attempt >= maxWatchAttempts {
		if err := workflow.ExecuteActivity(ctx, "MarkMonitoringFailed", params).Get(ctx, nil); err != nil {
			logger.Error("mark monitoring failed", "kind", params.Kind, "id", params.ID, "error", err)
		}
		return nil, fmt.Errorf("watch %s %s: %d polling attempts exhausted", params.Kind, params.ID, params.Attempt)
	}

	var decision core.WatchDecision
	if err := workflow.ExecuteActivity(ctx, "Reconcile", params).Get(ctx, &decision); err != nil {
		return nil, err
	}

	if decision.Done {
		return &decision, nil
	}

	logger.Info("instance not settled, rescheduling",
		"kind", params.Kind, "id", params.ID,
		"observed", decision.Observed, "attempt", params.Attempt)

	if err := workflow.Sleep(ctx, watchInterval); err != nil {
		return nil, err
	}
	params.Attempt++
	return nil, workflow.NewContinueAsNewError(ctx, WatchInstanceWorkflow, params)
}
