/*
Package boltstore provides a single-file datastore.Engine on bbolt.

Records are msgpack envelopes in the records bucket. Namespace and label index entries live in
their own buckets with keys ordered like the sort keys they index, and scans walk a bucket
cursor from the first candidate to the end of the requested range.

	records     <key>                                    record envelope
	namespaces  <namespace>\x00<sortKey>                 (empty)
	labels      <label>\x00<namespace>\x00<sortKey>\x00<key> (empty)

bbolt allows one writer at a time, so Set and Remove never conflict.
*/
package boltstore
