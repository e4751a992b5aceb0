// Package analysis computes the filter-dependent aggregate views of a
// dataset: label summary, score histogram, daily trend, word frequencies,
// and the sorted and paged comment browser.
//
// Every function here is pure and reads only the slice it is given, so the
// caller applies the filter once with Apply and passes the subset along.
package analysis
