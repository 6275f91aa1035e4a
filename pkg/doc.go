// Package pkg provides the core libraries for plasma cloud generation.
//
// # Overview
//
// Plasma fills a square grid of side 2^n+1 by random midpoint displacement:
// the four corners are seeded, then every square is split into four and the
// new edge midpoints and center are set to the mean of their neighbours plus
// a random offset that shrinks at every level. The heights are then mapped to
// colors. The pkg directory is organized as:
//
//  1. [heightfield] - The float32 grid and its allocation budget
//  2. [subdivide] - The recursive displacement engine and its random sources
//  3. [tone] - Height to color mapping, mapper decorators and the registry
//  4. [pipeline] - Synchronous and asynchronous generation with retry on
//     allocation failure
//  5. [display] - Fitting an image to a viewport and brightness filtering
//
// Supporting packages: [config] (TOML settings), [errors] (coded errors and
// input validation), [observability] (generation hooks) and [buildinfo].
//
// # Architecture
//
// The data flow of one generation:
//
//	Request (exponent, deviation, decay, seed, mapper)
//	         ↓
//	    [heightfield] allocate 2^n+1 grid (retry smaller on failure)
//	         ↓
//	    [subdivide] fill by midpoint displacement
//	         ↓
//	    [tone] scale to [0,1] and map to packed ARGB
//	         ↓
//	    [pipeline] publish the image, notify the consumer
//	         ↓
//	    [display] fit and filter into the viewport
//
// # Quick Start
//
// Generate one image synchronously:
//
//	req := pipeline.NewRequest(9)
//	req.Seed = 42
//	res, err := pipeline.Generate(ctx, req)
//	if err != nil {
//	    return err
//	}
//	frame := display.Render(res.Buffer, 800, 600, display.Options{})
//
// Or keep a background generator that always shows the newest request:
//
//	gen := pipeline.NewGenerator(pipeline.WithNotify(func(r pipeline.Result) {
//	    redraw(r.Buffer)
//	}))
//	defer gen.Close()
//	gen.Start(pipeline.NewRequest(heightfield.ExponentFor(w, h)))
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test -run Example ./... # Examples only
//
// [heightfield]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/heightfield
// [subdivide]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/subdivide
// [tone]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/tone
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/pipeline
// [display]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/display
// [config]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/plasmafractal/pkg/buildinfo
package pkg
