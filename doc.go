// Package nexusq implements a lock-free, multi-producer multi-consumer
// broadcast channel over a bounded ring buffer. Every attached Receiver
// sees every value published after it started receiving, in the same
// global order; a Receiver too slow to keep up is never allowed to read a
// value that a producer has already overwritten — the writer instead waits
// for the slowest attached reader to move off a cell before reusing it.
//
// Construct a channel with MakeChannel or MakeChannelWith, which return a
// connected Sender and Receiver pair sharing a buffer of the requested
// size (rounded up to a power of two). Additional handles are created with
// NewSenderFrom and Receiver.Clone/NewSender; the last handle
// to close releases the buffer.
//
// Blocking behavior — how long a Send or Recv call spins, yields, or parks
// before retrying — is pluggable through the waitstrategy package rather
// than fixed by the channel itself.
package nexusq
