/*
Package document owns the lifecycle of a single presentation document.

A Context moves through pending, prepared, inflated and displayed as its renderer
reports progress, and ends in finished (explicit destroy) or error. Commands issued
while the document is not yet rendered are queued and drained in arrival order once
it is; commands still queued when the document dies are rejected with a state
conflict. Lifecycle listeners are notified through a ports.Scheduler so they never
observe a transition on the stack of the call that caused it.

Handles are the only objects given to callers. They are revocable references to a
Context and never own it: the owner is whichever component created the Context (the
view controller, the backstack, a Prepared document, or a parent's Manager for
embedded documents).
*/
package document
