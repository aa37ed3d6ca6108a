package gateway

import (
	"strconv"
	"strings"
	"time"
)

// now is swapped in tests.
var now = time.Now

// GenerateEventID synthesizes an event id for callbacks that carry no natural
// identifier, in the form "gateway:transactionID:eventType:unixMillis".
//
// The trailing timestamp makes every call unique, so two calls for the same
// transaction never collide. Callers that want retries of one logical event
// to deduplicate must generate the id once and reuse it.
func GenerateEventID(gw Gateway, transactionID, eventType string) string {
	var b strings.Builder
	b.WriteString(string(gw))
	b.WriteByte(':')
	b.WriteString(transactionID)
	b.WriteByte(':')
	b.WriteString(eventType)
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(now().UnixMilli(), 10))
	return b.String()
}
