package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewInvocationID creates an id used to correlate the log lines of one invocation
func NewInvocationID(timestamp time.Time) string {
	return fmt.Sprintf("inv_%s_%s", timestamp.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}

// SnapshotKey builds the object key for a raw page snapshot
func SnapshotKey(invocationID string, timestamp time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s.html", timestamp.UTC().Format("2006-01-02"), invocationID)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
