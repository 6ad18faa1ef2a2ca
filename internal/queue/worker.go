package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/socialspark/server/pkg/apperrors"
)

// HandlePublishPostTask publishes a post whose scheduled time arrived.
// The publisher's claim step makes duplicate task delivery harmless; a
// post that was already claimed or deleted is skipped, not retried.
func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	err := j.ps.PublishScheduled(ctx, payload.PostID)
	if err != nil {
		switch apperrors.CodeOf(err) {
		case apperrors.CodeNotFound, apperrors.CodeValidation:
			log.Printf("Skipping publish task for post %s: %v", payload.PostID, err)
			return nil
		}
		return err
	}

	return nil
}
