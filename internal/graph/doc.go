// Package graph holds the execution graph topology that the trigger core
// resolves edges against.
//
// The graph is directed and index-stable: a NodeIndex or EdgeIndex, once
// issued, keeps naming the same node or edge until that element is removed,
// and removed indices are never handed out again. This lets the scheduler
// prune parts of a pipeline while tags raised against the remaining edges
// stay meaningful.
//
// LIFECYCLE:
//
//  1. Build: AddNode / AddEdge while the pipeline is being assembled.
//  2. Run: execution threads only call EdgeEndpoints and the other readers.
//  3. Prune (optional): RemoveEdge / RemoveNode. Trigger and port state that
//     references removed elements is torn down by the caller.
//
// All methods are safe for concurrent use; readers take a shared lock.
package graph
