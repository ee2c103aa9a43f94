// Package storage provides update slots: the flash storage the OTA client
// streams decompressed firmware into.
//
// A slot receives one byte at a time between Begin and Commit. Commit makes
// the image the one used on next boot; Abort throws a running write away.
//
//	slot := storage.NewFile("/var/lib/firmware/next.bin")
//	if !slot.Available() {
//	    // no second slot on this device
//	}
//
// File stages the image next to its destination and renames it into place on
// commit. Memory keeps everything in memory and is meant for tests.
package storage
