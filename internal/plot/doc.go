// Package plot renders error-distribution histograms for the aggregation
// report. Rendering is optional and off by default; the pipeline's accuracy
// numbers never depend on it.
package plot
