// Package metadata records a summary of each crawl run as JSON next to the
// output file (output2.txt.summary.json for the default output).
package metadata
