// Package trace records the AT protocol exchanged with the headset as a
// stream of machine-readable events.
//
// Events are independent of operational logging: they capture every frame
// written to or read from the RFCOMM channel, each completed command
// exchange, every mode push, connection state transitions and errors. Each
// event is tagged with the identifier of the connection it belongs to, so a
// trace file spanning several reconnects can be filtered per connection.
//
// Sinks:
//
//   - FileTracer appends CBOR-encoded events to a file.
//   - LogTracer writes events to a logger at debug level.
//   - MultiTracer fans out to several sinks.
//   - NoopTracer discards everything.
//
// Reader decodes a trace file back, optionally applying a Filter.
package trace
