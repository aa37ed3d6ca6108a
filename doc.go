// Package hookgate converts at-least-once payment gateway callbacks into
// effectively-once processing.
//
// hookgate is a library. A callback handler extracts a stable
// (gateway, event id) pair, asks the Gate whether it is new, performs its
// side effects only when it is, and closes the record out:
//
//	g, err := hookgate.New(hookgate.WithStore(memory.New()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := g.CheckAndReserve(ctx, gateway.Stripe, evt.ID, string(evt.Type), payload)
//	switch res.Status {
//	case hookgate.StatusDuplicate:
//	    return http.StatusOK
//	case hookgate.StatusError:
//	    return http.StatusInternalServerError // gateway redelivers
//	}
//	if err := handle(evt); err != nil {
//	    g.MarkFailed(ctx, gateway.Stripe, evt.ID, err.Error())
//	} else {
//	    g.MarkProcessed(ctx, gateway.Stripe, evt.ID, nil)
//	}
//
// Exactly-once reservation is delegated to the store's uniqueness
// constraint on (gateway, event id), so it holds across processes.
// Backends: memory, mongo, postgres, sqlite, redis and gormstore
// (MySQL/Postgres through GORM).
//
// A record whose handler crashes between CheckAndReserve and a Mark* call
// stays in the processing state; nothing reclaims it.
package hookgate
