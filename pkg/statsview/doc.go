// Package statsview optionally serves live runtime graphs (heap, goroutines,
// GC pauses) over HTTP. The server is only compiled in with the statsview
// build tag:
//
//	go build -tags statsview ./cmd/desktop
//
// Graphs are then served at DefaultAddress under /debug/statsview, next to
// the standard pprof handlers.
package statsview

// DefaultAddress is used when Serve is given an empty address.
const DefaultAddress = "localhost:12800"

const graphPath = "/debug/statsview"
