package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditPurge is the task type for trimming the login audit log.
	TaskTypeAuditPurge = "auth:purge_audit"
)

// AuditPurgePayload carries the retention window for an audit purge run.
type AuditPurgePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditPurgeTask constructs an Asynq task that deletes login audit rows
// whose tokens expired more than the retention window ago.
func NewAuditPurgeTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPurgePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPurge, data), nil
}
