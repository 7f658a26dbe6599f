// Package preflight provides readiness checks for the binaries, directories
// and remote services reelsmith depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll and CheckSystemDeps at start and logs every
//     failure with a hint, then keeps running so a fixed environment does
//     not need a restart.
//   - The CLI "reelsmith status" command renders the same results as a table.
//
// Remote checks are gated by their credentials: a missing key reports a
// failed check without a network call.
package preflight
