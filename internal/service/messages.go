package service

import (
	"fmt"
	"taskManager/internal/models/task"
	"time"
)

func formatDeadline(deadline *time.Time) string {
	if deadline == nil {
		return "not set"
	}
	return deadline.Format(time.RFC1123)
}

func assignedBody(t *task.Task) string {
	return fmt.Sprintf("A new task %q has been assigned to you. Deadline: %s", t.Title, formatDeadline(t.Deadline))
}

func deadlineBody(t *task.Task) string {
	return fmt.Sprintf("The task %q has a deadline approaching: %s", t.Title, formatDeadline(t.Deadline))
}

func updateBody(t *task.Task) string {
	return fmt.Sprintf(`Hello,

The task %q has been updated with the following details:

- Description: %s
- Deadline: %s
- Priority: %s
- Status: %s

Please review the changes.

Best regards,
Task Management App
`, t.Title, t.Description, formatDeadline(t.Deadline), t.Priority, t.Status)
}
