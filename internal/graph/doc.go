// Package graph implements the workflow execution engine shared by every
// pipeline: an accumulating State threaded through named nodes connected by
// direct and router-driven edges.
//
// Graphs are assembled with a Builder and validated once by Compile. The
// compiled Graph is immutable and safe to run concurrently. Each run walks the
// graph in supersteps: nodes on the current frontier execute concurrently, their
// partial results merge in edge-declaration order, and routers then choose the
// next frontier. Join nodes act as barriers and fire once after every
// predecessor that can still deliver has done so.
//
// Node failures are data. A node reports expected failures through the "error"
// key; panics are recovered at the node boundary and converted the same way.
// Once an error is present, routers are forced onto the label that leads to End.
//
// Runs may be blocking (Run), non-blocking (Start), or streaming (Stream).
// When a CheckpointStore is configured, every node completion is snapshotted
// and the step boundaries recorded there allow Resume after cancellation.
package graph
