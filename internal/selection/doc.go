// Package selection holds the row-selection engine for server-backed grids.
//
// Allowed here:
// - the complement selection state (select-all flag plus toggled ids)
// - range anchoring and keep/discard partitioning against a RowSource
// - the Strategy state machine and its snapshot format
//
// Not allowed here:
// - fetching, caching, or storing rows (see rowmodel and database)
// - rendering or key handling (see tui)
package selection
