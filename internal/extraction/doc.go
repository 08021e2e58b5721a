// Package extraction pulls a single product price out of free text such as
// search-result titles and snippets.
package extraction
