// Package market holds the fixed reference data of the price engine: the six
// tracked products, the regional breakdown, the per-region variation
// profiles, the ordered source catalogue and the static backup table.
//
// All lists are returned in their canonical order. Callers must not depend on
// map iteration for anything that is rendered or drawn from a random source.
package market
