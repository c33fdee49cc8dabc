// Package va is the coordinated multi-view selection engine behind the
// student-performance dashboards.
//
// Usage:
//
//	import "github.com/haakonRefsvik/VA-student-performance/engine"
//
//	session, err := engine.NewSession(table, dashboard,
//	    engine.WithLogger(log),
//	    engine.WithCache(64, 10*time.Minute),
//	)
//	update, err := session.HandleEvent(ctx, engine.Event{
//	    ViewID: "tsne-plot", Kind: engine.PointSelection, Points: rows,
//	})
//
// Every view keeps its own selection; the canonical selection is their
// intersection and every dependent view is recomputed from it.
//
// Raw UI payloads are converted by the translator package, and the server
// package exposes one session over HTTP.
package va
