package services

import (
	"context"
	"strings"
	"time"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func ensureClock(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return time.Now
}

// idSuffix derives a short deterministic token from a row identifier,
// used to build unique anonymization placeholders without coordination.
func idSuffix(id string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if len(cleaned) <= 8 {
		return cleaned
	}
	return cleaned[len(cleaned)-8:]
}
