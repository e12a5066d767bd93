// Package relay captures the lineage of messages flowing through an ESB pipeline.
//
// Every hop of a message through a hosted service step is captured as an immutable
// snapshot (payload parts and headers), stamped with a lineage identity
// (correlation id, order and parent id) and handed off to a sink.
// Tagging is a side channel: it never changes the outcome of the wrapped step.
//
// The root package holds the ambient pieces shared by all other packages:
// logger adapters and identifier generators.
package relay
