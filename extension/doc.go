// Package extension assembles a ready-to-mount hookgate: store, gate,
// dispatch router, gateway parsers and HTTP handler.
//
// The extension:
//   - Builds the Gate from a configured store and options
//   - Runs schema migrations on Init unless disabled
//   - Mounts the callback and query routes under a configurable prefix
//   - Registers the query routes with OpenAPI metadata on a Forge router
//   - Closes the store on shutdown
//
// Usage:
//
//	ext := extension.New(
//	    extension.WithStore(memory.New()),
//	    extension.WithParser(&gateway.StripeParser{Secret: secret}),
//	    extension.WithPrefix("/webhooks"),
//	)
//	if err := ext.Init(ctx); err != nil {
//	    return err
//	}
//	ext.Router().Handle(gateway.Stripe, "invoice.*", handleInvoice)
//	http.Handle("/webhooks/", ext.Handler())
package extension
