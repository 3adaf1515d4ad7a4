// Package fragment loads shared HTML fragments (header, footer) into the mount points of a
// page and runs the page setup sequence once every fragment is in place.
//
// # Load Cycle
//
// A Loader owns a State with three flags: loaded, loading and error. LoadAll starts a cycle
// only when the loader is neither loading nor loaded, so repeated triggers are no-ops. A
// cycle fetches every fragment whose container is present in the document concurrently and
// joins on all of them before deciding the outcome:
//
//   - all fragments mounted: loaded is set and the injected Initializer runs exactly once
//   - any fragment failed permanently: error is set, a dismissible error panel is appended
//     to the document and the Initializer is not run
//
// ConnectivityRestored starts a new cycle only after a failed one, and only when no cycle
// is in flight.
//
// # Retry Policy
//
// Each fragment is fetched with a per-attempt timeout. Non-2xx responses, transport errors
// and timeouts are retried after a fixed delay until MaxAttempts is reached. The delay does
// not grow between attempts. An exhausted fragment gets an inline error block with a retry
// link inside its container. A missing container fails immediately without a request.
//
// # Notifications
//
// Subscribe registers a typed listener for component.loaded, component.failed,
// components.initialized and components.failed events. Listeners run synchronously on
// the goroutine that produced the event and must be safe for concurrent use.
//
// # Usage
//
//	descriptors, _ := fragment.DefaultDescriptors(cfg.Origin)
//	l := fragment.New(doc, descriptors, fragment.Options{
//	    Fetcher: fragment.NewHTTPFetcher(nil),
//	    Policy:  cfg.Policy(),
//	    Setup:   setup,
//	    Logger:  logger,
//	})
//	report, err := l.LoadAll(ctx)
package fragment
