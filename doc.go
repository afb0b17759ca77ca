/*
Package viewhost hosts declarative documents on a single view surface.

A document is created from its source and data, resolves the packages it
imports, and moves through a small lifecycle: pending, prepared, inflated,
displayed, and finally finished or error. The layout engine that actually
inflates documents is injected through ports.Engine; pkg/adapters/sim ships an
in-process one.

# Key Features

  - Prepare ahead: documents can be prepared before a view is available and
    rendered later without resolving packages again.
  - Ordered commands: commands sent before a document is displayed are queued
    and run in order once it is.
  - Backstack: documents that declare a backstack id are cached when displaced
    and restored by GoBack commands or system back.
  - Pluggable package caches: memory, Redis and bbolt.

# Usage

	eng := sim.NewEngine()
	vh, err := viewhost.New(eng)
	if err != nil {
		log.Fatal(err)
	}
	defer vh.Destroy()

	vh.Bind(sim.NewView("main"))
	h, err := vh.Render(ctx, viewhost.RenderRequest{
		PrepareRequest: viewhost.PrepareRequest{Document: doc},
	})
	if err != nil {
		log.Fatal(err)
	}
	_, err = h.ExecuteCommands(ctx, json.RawMessage(`[{"type":"SendEvent","arguments":["hello"]}]`))
*/
package viewhost
