// Package storage owns the crawl output file.
//
// The format is one line per expanded id:
//
//	783214 [1001, 1002]
//	1001 []
//
// The file is opened in append mode, so re-running a crawl adds to what is
// already there.
package storage
