// Package harness runs scheduler scenarios and checks their drain traces.
//
// A scenario names a topology, then lists cycles. Each cycle fires port
// signals, optionally detaches edges, turns the scheduler once and compares
// the drained batch against the cycle's expect list. A cycle can also
// dispatch, in which case the nodes handed to the ready queue are compared
// against its ready list.
//
// Every run uses a deterministic cycle clock and a fixed run ID, so two
// runs of the same scenario produce byte-identical traces. RunWithGolden
// compares that trace against testdata/golden/<name>.golden:
//
//	go test ./internal/harness -update
//
// regenerates the golden files.
//
// Tags are written as "<from>-><to>:<direction>", e.g. "a->b:source". A tag
// whose edge was detached before it drained is written with the edge index
// instead, e.g. "e3:source".
package harness
