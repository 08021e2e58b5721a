// Package collector queries the ordered price sources through a search
// capability, extracts one price per product per source and merges the
// results into a daily record with first-found-wins precedence.
//
// Search failures never abort a run: a failed query is logged and treated as
// an empty result, and products nobody priced stay absent unless the static
// backup table covers them.
package collector
