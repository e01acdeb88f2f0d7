// Package topology compiles CUE pipeline descriptions into execution graphs.
//
// A topology file declares its nodes and edges under a top-level
// `pipeline` field:
//
//	pipeline: {
//		name: "etl"
//		nodes: ["read", "parse", "write"]
//		edges: [
//			{from: "read", to: "parse"},
//			{from: "parse", to: "write"},
//		]
//	}
//
// Node names are NFC-normalized before use, so visually identical names
// written with different Unicode compositions refer to the same node.
// Nodes get indices in declaration order and edges in declaration order,
// which keeps scheduler traces stable across runs.
package topology
