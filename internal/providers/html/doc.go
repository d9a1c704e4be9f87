// Package html renders UI trees as HTML fragments and pages.
//
// Components escape every prop they print and produce markup from a small
// fixed vocabulary of elements and classes. Because trees come from model
// output, every fragment is additionally passed through a bluemonday
// policy before it leaves the process: URLs are restricted to safe schemes
// and inline styles are limited to percentage widths on chart bars.
package html
