package queue

import (
	"github.com/socialspark/server/internal/service"
)

type Queue struct {
	ps service.PublisherService
}

func NewQueue(ps service.PublisherService) *Queue {
	return &Queue{ps: ps}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}
