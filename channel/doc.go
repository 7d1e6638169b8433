// Package channel implements the SHMStream v2 shared-memory ring protocol:
// a single writer and one or more readers exchanging fixed-size elements
// through a page of memory with no locks on the fast path.
//
// The writer and reader never synchronize directly; all communication is
// through the header's atomic fields (transport, epoch, protocol,
// element_size, elements, wsc, wc) using release/acquire ordering. A
// [Reader] detects a writer restart via epoch, and an overrun (the writer
// lapping the reader) via the write-start counter wsc outrunning the
// reader's own read count by more than the ring's capacity.
package channel
