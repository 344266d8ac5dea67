// Package netpack compiles compact struct-style format strings into reusable
// codecs for fixed-layout binary records that may carry variable-length byte
// strings. A variable-length string is introduced by the `$` marker and its
// length is taken from the integer field decoded (or encoded) immediately
// before it, so the length never travels separately from the data.
//
// Components:
//   - Format: a format string compiled once into an ordered segment list.
//     Immutable and safe to share across any number of concurrent
//     pack/decode operations.
//   - Session: an incremental decoder over a Format. Bytes are pushed in as
//     they arrive; each Feed either reports how many more bytes are needed
//     or hands back the decoded values plus any surplus bytes past the
//     record boundary.
//   - Registry: a compiled-format cache (Ristretto-backed) behind the
//     package-level Pack/Unpack/MinimumSize/InitialSize helpers, so ad-hoc
//     format strings still get compile-once behavior.
//   - scalar.Codec: the pluggable fixed-width layout codec the core packs
//     and unpacks through. scalar/stdpack is the stock implementation.
//
// Format strings default to network byte order (big-endian); a leading
// `@ = < > !` overrides it. Scalar codes follow the usual struct packing
// conventions: x c b B ? h H i I l L q Q f d P s p, each optionally
// preceded by a decimal repeat count (a byte length for s and p).
//
// Wire layout: per segment, the fixed-layout bytes in the configured byte
// order, immediately followed by exactly length raw string bytes. No
// padding, no terminator, no transformation.
//
// Needing more bytes is not an error. Outcome.Need is a normal control-flow
// signal; the caller obtains more bytes from its transport and feeds them
// back in.
package netpack
