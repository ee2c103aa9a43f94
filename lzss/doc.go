// Package lzss implements the fixed LZSS variant used by OTA image payloads.
//
// # Format
//
// The stream is a sequence of bit-packed tokens, most significant bit first:
//
//	1 LLLLLLLL                 literal byte L
//	0 PPPPPPPPPPP NNNN         copy N+2 bytes from dictionary position P
//
// The dictionary is a 2048-byte ring buffer whose first 2031 positions are
// seeded with spaces. Decoded bytes are written at the ring cursor, which
// starts at position 2031. There is no end-of-stream marker; the image
// header carries the compressed length.
//
// # Streaming
//
// Decoder is an io.Writer that accepts compressed input in arbitrary chunks
// and delivers decoded bytes to an io.ByteWriter sink, carrying partial
// tokens across calls:
//
//	dec := lzss.NewDecoder(sink)
//	dec.Write(chunk1)
//	dec.Write(chunk2)
//
// Compress produces streams for Decoder and is used to build images.
package lzss
