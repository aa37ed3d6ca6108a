package redis

// Primary record storage, keyed by record id.
const prefixEvent = "hookgate:evt:"

// Unique (gateway, event id) index. The value is the record id.
const uniqueEvent = "hookgate:u:" // + gateway + ":" + event id

// Sorted set indexes scored by creation time.
const (
	zEventAll     = "hookgate:z:evt:all"
	zEventGateway = "hookgate:z:evt:gw:" // + gateway
)

// entityKey returns the primary key for a record.
func entityKey(prefix, id string) string {
	return prefix + id
}

func uniqueKey(gw, eventID string) string {
	return uniqueEvent + gw + ":" + eventID
}

func gatewayIndexKey(gw string) string {
	return zEventGateway + gw
}
