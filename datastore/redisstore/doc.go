/*
Package redisstore provides a Redis implementation of datastore.Engine.

Records are stored as JSON under one key each. Every namespace and every label namespace is a
sorted set whose members share score 0, so key operators become ZRANGEBYLEX/ZREVRANGEBYLEX
ranges and limits become LIMIT clauses. Writes run in WATCH/MULTI/EXEC transactions that
replace the record and its index entries together.
*/
package redisstore
