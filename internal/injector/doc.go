// Package injector delivers encoded user scripts to a host page.
//
// A Transport is whatever carries a payload into the page: a browser bridge, a
// devtools session, or a sandbox.Page in tests and in the verify command.
// Scripts are delivered in order. The first payload the host refuses ends the
// injection; it is reported through ErrHostRejected and never retried.
package injector
