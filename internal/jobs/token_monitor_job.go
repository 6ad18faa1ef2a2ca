package jobs

import (
	"context"
	"log"
	"time"

	"github.com/socialspark/server/internal/repository"
)

// expiryWarningWindow is how far ahead the monitor warns about tokens
// that are about to expire.
const expiryWarningWindow = 48 * time.Hour

// TokenMonitorJob disconnects accounts whose tokens have expired and
// logs a warning for tokens expiring soon.
type TokenMonitorJob struct {
	ar repository.SocialAccountRepository
}

func NewTokenMonitorJob(ar repository.SocialAccountRepository) *TokenMonitorJob {
	return &TokenMonitorJob{ar: ar}
}

func (j *TokenMonitorJob) Run() {
	ctx := context.Background()
	now := time.Now()

	expired, err := j.ar.ListExpired(ctx, now)
	if err != nil {
		log.Printf("Failed to list expired accounts: %v", err)
		return
	}
	for _, account := range expired {
		if err := j.ar.SetConnected(ctx, account.ID, false); err != nil {
			log.Printf("Failed to disconnect account %s: %v", account.ID, err)
			continue
		}
		log.Printf("Token expired for %s account %s (@%s), marked disconnected",
			account.Platform, account.ID, account.Username)
	}

	expiring, err := j.ar.ListExpiringBetween(ctx, now, now.Add(expiryWarningWindow))
	if err != nil {
		log.Printf("Failed to list expiring accounts: %v", err)
		return
	}
	for _, account := range expiring {
		log.Printf("Token for %s account %s (@%s) expires at %s",
			account.Platform, account.ID, account.Username,
			account.TokenExpiresAt.Format(time.RFC3339))
	}
}
