// orchestrator.go drives the request/response/tool-execution cycle: send
// the model-facing history, interpret the structured response as a final
// answer or a tool invocation, execute the tool, fold the result back
// into the conversation, and repeat until an answer or a failure.
//
// Design decisions:
//   - The loop is an explicit for with a depth counter, not call-stack
//     recursion, so cancellation and error handling stay uniform.
//   - One outstanding completion request at a time; the orchestrator is
//     not reentrant per conversation.
//   - State is appended to the conversation before any re-invocation of
//     the completion client, so a crash mid-loop leaves a consistent,
//     inspectable history.
package chat

import (
	"context"
	"fmt"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/applog"
	"github.com/askdata/askdata/db"
)

// CompletionClient generates one structured response from the active
// schema context and the model-facing history.
type CompletionClient interface {
	Generate(ctx context.Context, schemaContext string, turns []ai.Message) (*ai.StructuredResponse, error)
}

// SQLExecutor runs one SQL statement. Satisfied by db.Executor.
type SQLExecutor interface {
	Execute(ctx context.Context, sql string) (*db.Result, error)
}

// State of the orchestrator's turn-processing machine.
type State int

const (
	StateAwaitingModel State = iota
	StateExecutingSQL
	StateExecutingChart
	StateDone
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateExecutingSQL:
		return "executing_sql"
	case StateExecutingChart:
		return "executing_chart"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// User-visible failure notices. Failures reach the history only as plain
// status messages; the UI offers retry by starting a fresh turn.
const (
	completionFailedNotice = "Sorry, there was an error processing your request."
	recursionLimitNotice   = "Sorry, I couldn't complete this request. Please try asking again."
)

// Orchestrator processes one user turn at a time against a conversation.
type Orchestrator struct {
	client   CompletionClient
	executor SQLExecutor
	conv     *Conversation

	maxDepth int
	rowLimit int
	state    State
}

// NewOrchestrator wires the loop. maxDepth bounds SQL continuations per
// turn; rowLimit caps rows serialized back to the model.
func NewOrchestrator(client CompletionClient, executor SQLExecutor, conv *Conversation, maxDepth, rowLimit int) *Orchestrator {
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if rowLimit <= 0 {
		rowLimit = 5
	}
	return &Orchestrator{
		client:   client,
		executor: executor,
		conv:     conv,
		maxDepth: maxDepth,
		rowLimit: rowLimit,
		state:    StateAwaitingModel,
	}
}

// State returns the current machine state for inspection by the UI.
func (o *Orchestrator) State() State {
	return o.state
}

// Conversation returns the conversation this orchestrator mutates.
func (o *Orchestrator) Conversation() *Conversation {
	return o.conv
}

// Run drives the loop for the current user turn until a terminal state.
// The caller appends the user turn first. Returns the underlying cause
// on failure or cancellation; the visible notice is already appended.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.state = StateAwaitingModel

	// calls counts completion round-trips; each SQL continuation costs
	// one more. The first call is the turn itself.
	for calls := 0; ; calls++ {
		if calls > o.maxDepth {
			return o.fail(ErrRecursionLimit, recursionLimitNotice)
		}
		if err := o.checkCancelled(ctx); err != nil {
			return err
		}

		resp, err := o.client.Generate(ctx, o.conv.Schema(), o.conv.ModelTurns())
		if err != nil {
			if cancelErr := o.checkCancelled(ctx); cancelErr != nil {
				return cancelErr
			}
			return o.fail(fmt.Errorf("%w: %v", ErrCompletionFailed, err), completionFailedNotice)
		}
		// Generate validates; this guards against client implementations
		// that don't. Degraded to a completion failure, never a crash.
		if err := resp.Validate(); err != nil {
			applog.Error("malformed structured response: %v", err)
			return o.fail(fmt.Errorf("%w: %v", ErrCompletionFailed, err), completionFailedNotice)
		}

		if !resp.FunctionCallRequired {
			if err := o.conv.AppendAssistantText(resp.Content); err != nil {
				return o.fail(err, completionFailedNotice)
			}
			o.state = StateDone
			return nil
		}

		switch resp.FunctionCallName {
		case ai.ToolExecuteSQL:
			if err := o.runSQL(ctx, resp.SQLArgs.SQL); err != nil {
				return err
			}
			// Recursive continuation: back to the model with the result.
			o.state = StateAwaitingModel

		case ai.ToolGenerateChart:
			o.state = StateExecutingChart
			if err := o.conv.AppendChartMessage(resp.ChartArgs.Config, resp.Content); err != nil {
				return o.fail(err, completionFailedNotice)
			}
			// A chart ends the turn even when no summary accompanies it;
			// the model is never re-invoked after a chart.
			o.state = StateDone
			return nil

		default:
			applog.Error("unknown function call %q", resp.FunctionCallName)
			return o.fail(fmt.Errorf("%w: unknown function %q", ErrCompletionFailed, resp.FunctionCallName), completionFailedNotice)
		}
	}
}

// runSQL executes one SQL tool call and folds the bounded result back
// into the conversation.
func (o *Orchestrator) runSQL(ctx context.Context, sqlText string) error {
	o.state = StateExecutingSQL
	if err := o.checkCancelled(ctx); err != nil {
		return err
	}

	result, err := o.executor.Execute(ctx, sqlText)
	if err != nil {
		if cancelErr := o.checkCancelled(ctx); cancelErr != nil {
			return cancelErr
		}
		// Terminate instead of resubmitting a broken query; the user
		// must re-ask.
		return o.fail(fmt.Errorf("%w: %v", ErrSQLExecution, err),
			fmt.Sprintf("I couldn't run that query: %v", err))
	}

	payload, err := result.JSONRows(o.rowLimit)
	if err != nil {
		return o.fail(fmt.Errorf("%w: %v", ErrSQLExecution, err), completionFailedNotice)
	}

	if err := o.conv.AppendToolExchange(sqlText, payload); err != nil {
		return o.fail(err, completionFailedNotice)
	}
	return nil
}

// checkCancelled moves to the Cancelled state without touching the
// conversation, so the UI can distinguish it from a failure.
func (o *Orchestrator) checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		o.state = StateCancelled
		return err
	}
	return nil
}

// fail records a user-visible notice and terminates the turn. The notice
// is a status message: visible in the UI, never part of the model-facing
// history, so a retry starts from a clean alternation.
func (o *Orchestrator) fail(cause error, notice string) error {
	o.conv.AppendStatus(notice)
	o.state = StateFailed
	applog.Error("chat turn failed: %v", cause)
	return cause
}
