package nodes

import (
	"context"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// DefaultCron is the every-minute expression assumed for schedule
// nodes with no configured cron.
const DefaultCron = "*/1 * * * *"

// scheduleExecutor has no execution-time side effect: cron registration
// happens in the engine's pre-pass. The node's result records the
// expression that was registered.
type scheduleExecutor struct{}

func (scheduleExecutor) Execute(_ context.Context, req Request) result.Result {
	cron := req.Node.StringOr("cron", DefaultCron)
	return result.Notify(result.TagScheduleSet + cron)
}
