// Package jobs holds the cron entry points: the minute publish sweep
// and the hourly token monitor.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/internal/service"
)

const schedulerConcurrency = 10

// SchedulerJob publishes every post whose scheduled time has passed.
// It is the catch-up path behind the queued publish tasks, so posts
// still go out if a task was lost or the worker was down.
type SchedulerJob struct {
	pr repository.PostRepository
	ps service.PublisherService
}

func NewSchedulerJob(pr repository.PostRepository, ps service.PublisherService) *SchedulerJob {
	return &SchedulerJob{pr: pr, ps: ps}
}

func (j *SchedulerJob) Run() {
	ctx := context.Background()

	posts, err := j.pr.FindDue(ctx, time.Now())
	if err != nil {
		log.Printf("Failed to list due posts: %v", err)
		return
	}
	if len(posts) == 0 {
		return
	}

	log.Printf("Publishing %d due posts", len(posts))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, schedulerConcurrency)

	for _, post := range posts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(postID string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.ps.PublishScheduled(ctx, postID); err != nil {
				log.Printf("Failed to publish post %s: %v", postID, err)
			}
		}(post.ID)
	}

	wg.Wait()
}
