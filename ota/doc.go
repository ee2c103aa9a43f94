// Package ota downloads compressed firmware images and streams them into an
// update slot.
//
// # Overview
//
// An OTA image is a 20-byte header followed by an LZSS-compressed payload.
// The client:
//   - Requests the image through a Transport
//   - Validates the header length and board magic number
//   - Decompresses the payload into Storage one chunk at a time
//   - Verifies the CRC32 checksum before committing the update
//
// The image is never held in memory as a whole. Each Poll reads one chunk
// and processes it, no matter where the chunk boundaries fall.
//
// # Basic Usage
//
// The blocking API downloads the whole image in one call:
//
//	tr, err := transport.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := ota.New(storage.NewFile("/data/next.bin"), tr)
//
//	n, err := client.Download(context.Background(), "http://updates.local/fw.ota")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("wrote %d bytes", n)
//
//	if err := client.Update(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Poll Loop
//
// A main loop can drive the download itself:
//
//	if _, err := client.Start(ctx, url); err != nil {
//	    return err
//	}
//	for {
//	    status, err := client.Poll()
//	    if err != nil {
//	        return err
//	    }
//	    if status == ota.StatusCompleted {
//	        break
//	    }
//	    // other work
//	}
//	return client.Update()
//
// # Configuration Options
//
//	client := ota.New(slot, tr,
//	    ota.WithMagic(protocol.MagicNanoESP32),
//	    ota.WithChunkSize(4096),
//	    ota.WithProgressCallback(progressFunc),
//	    ota.WithLogger(slog.Default()),
//	)
//
// # Error Handling
//
// Every failure carries a stable negative code:
//
//	_, err := client.Download(ctx, url)
//	switch {
//	case errors.Is(err, ota.ErrHeaderMagic):
//	    // image built for another board
//	case errors.Is(err, ota.ErrHTTPHeaderTimeout):
//	    // retry later
//	}
//	code := ota.CodeOf(err)
//
// The underlying cause is wrapped: protocol.LengthMismatchError,
// protocol.MagicMismatchError, protocol.ChecksumMismatchError, OverrunError
// and TruncatedError can be retrieved with errors.As.
//
// Failed downloads abort the storage write. A checksum mismatch is only
// detected by Verify or Update, after every byte has been written; the
// write is aborted and never committed.
package ota
