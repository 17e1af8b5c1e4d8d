// Package idempotency builds stable fingerprints for inbound transport
// messages so the admission gate can recognize redeliveries.
package idempotency

import (
	"fmt"
	"strings"
	"time"
)

func MessageFingerprint(conversationID string, messageID string, timestamp time.Time) string {
	conversationID = strings.TrimSpace(conversationID)
	messageID = strings.TrimSpace(messageID)
	return fmt.Sprintf("%s:%s:%d", conversationID, messageID, timestamp.UTC().Unix())
}
