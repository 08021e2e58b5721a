// Package regional expands national prices into a provincial breakdown by
// applying a bounded random ratio per region and product.
//
// The random generator is always passed in by the caller, so a fixed seed
// reproduces the same breakdown. Draws happen in a fixed order: products in
// canonical order, regions with the national aggregate first, exactly one
// draw for every non-national region of a product whose national price is
// present.
package regional
