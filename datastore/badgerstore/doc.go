/*
Package badgerstore provides an embedded datastore.Engine on BadgerDB.

Records are JSON envelopes stored under one key each. Namespaces and label namespaces are kept
as index keys whose byte order is the sort-key order, so scans are prefix iterations that seek
to the first candidate and stop at the end of the requested range.

	r\x00<key>                                        record envelope
	n\x00<namespace>\x00<sortKey>                     namespace index
	l\x00<label>\x00<namespace>\x00<sortKey>\x00<key> label index

Open with inMemory set keeps everything in memory, which the tests and the CLI's scratch mode
use.
*/
package badgerstore
