/*
Package ports defines the driven ports (interfaces) for the viewhost core.

These interfaces decouple the document lifecycle from the native layout engine,
package fetching, caching and scheduling, allowing the core to be exercised against
a simulated engine in tests and a real one in production.

# Key Interfaces

  - Engine: creates Content and Renderer instances for a document.
  - Renderer: the opaque layout/inflation engine bound to one document.
  - PackageLoader: resolves import requests into package payloads.
  - PackageCache: stores fetched packages by name and version.
  - Scheduler: runs tasks after the current call stack unwinds.
*/
package ports
