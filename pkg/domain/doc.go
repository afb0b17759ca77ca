/*
Package domain contains the core types shared by every layer of the viewhost.

It defines the document lifecycle vocabulary (DocumentState, DisplayState), the
incremental configuration deltas applied to documents, the metrics snapshot a
document is laid out against, and the events emitted to lifecycle hooks. The
package is kept free of I/O so it can be imported by adapters and the core alike.

# Key Entities

  - DocumentState: the lifecycle value held by one Document Context.
  - ConfigurationChange: a mergeable delta of viewport, theme and environment values.
  - Metrics: the viewport snapshot captured when a document is created.
  - ImportRequest: a named and versioned package requested by a document.
*/
package domain
