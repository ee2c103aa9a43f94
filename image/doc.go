// Package image builds and parses OTA image files.
//
// # Image File Format
//
// An OTA image is the 20-byte protocol header followed by the LZSS
// compressed firmware:
//
//	[LENGTH(4)][CRC32(4)][MAGIC(4)][VERSION(8)][PAYLOAD...]
//
// LENGTH counts every byte after the CRC32 field, and CRC32 covers the same
// bytes. See package protocol for the field layout.
//
// # Usage
//
// Build an image from a raw firmware binary:
//
//	fw, _ := os.ReadFile("firmware.bin")
//	img, err := image.Build(fw, protocol.MagicESP32, protocol.Version{PayloadMajor: 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("firmware.ota", img.Bytes(), 0o644)
//
// Parse and inspect an existing image:
//
//	img, err := image.Parse("firmware.ota")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Version: %s\n", img.Header.Version)
//	fmt.Printf("Firmware size: %d\n", len(img.Firmware()))
//
// # Error Handling
//
// Parse returns detailed errors for invalid files:
//   - Truncated header
//   - *protocol.LengthMismatchError when LENGTH disagrees with the file size
//   - *protocol.ChecksumMismatchError when CRC32 does not match
package image
