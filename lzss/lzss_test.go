package lzss

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func testInputs() map[string][]byte {
	rng := rand.New(rand.NewSource(42))

	random := make([]byte, 5000)
	rng.Read(random)

	text := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)

	// mostly repetitive with noise, longer than the window
	mixed := make([]byte, 3*WindowSize+123)
	for i := range mixed {
		if rng.Intn(10) == 0 {
			mixed[i] = byte(rng.Intn(256))
		} else {
			mixed[i] = byte(i % 7)
		}
	}

	return map[string][]byte{
		"empty":       {},
		"single byte": {0x42},
		"two bytes":   {0x00, 0x00},
		"spaces":      bytes.Repeat([]byte{' '}, 100),
		"zeros":       make([]byte, 4096),
		"text":        text,
		"random":      random,
		"mixed":       mixed,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, input := range testInputs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := Compress(input)
			if err != nil {
				t.Fatalf("Compress() error: %v", err)
			}

			got := Decompress(compressed)
			if !bytes.Equal(got, input) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(input))
			}
		})
	}
}

func TestRoundTripChunked(t *testing.T) {
	input := testInputs()["mixed"]
	compressed, err := Compress(input)
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}

	for _, chunk := range []int{1, 2, 3, 5, 13, 64, 1000} {
		var out bytes.Buffer
		dec := NewDecoder(&out)
		for off := 0; off < len(compressed); off += chunk {
			end := off + chunk
			if end > len(compressed) {
				end = len(compressed)
			}
			n, err := dec.Write(compressed[off:end])
			if err != nil {
				t.Fatalf("chunk %d: Write() error: %v", chunk, err)
			}
			if n != end-off {
				t.Fatalf("chunk %d: Write() = %d, want %d", chunk, n, end-off)
			}
		}

		if !bytes.Equal(out.Bytes(), input) {
			t.Errorf("chunk %d: output mismatch", chunk)
		}
		if dec.Written() != int64(len(input)) {
			t.Errorf("chunk %d: Written() = %d, want %d", chunk, dec.Written(), len(input))
		}
	}
}

func TestCompressionRatio(t *testing.T) {
	input := testInputs()["text"]
	compressed, err := Compress(input)
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	if len(compressed) >= len(input)/4 {
		t.Errorf("compressed %d bytes to %d, expected better than 4:1", len(input), len(compressed))
	}
}

func TestDecodeLiteral(t *testing.T) {
	// 1 01000001 = literal 'A', then 7 zero padding bits
	var out bytes.Buffer
	dec := NewDecoder(&out)
	if _, err := dec.Write([]byte{0xA0, 0x80}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "A" {
		t.Errorf("decoded %q, want %q", out.String(), "A")
	}
}

func TestDecodeDictionarySeed(t *testing.T) {
	// 0 00000000000 1111: copy 17 bytes from position 0, all spaces
	var out bytes.Buffer
	dec := NewDecoder(&out)
	if _, err := dec.Write([]byte{0x00, 0x0F}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := bytes.Repeat([]byte{Filler}, MaxMatch)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("decoded %q, want %q", out.Bytes(), want)
	}
}

func TestDecodeTruncatedToken(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{
			// literal 'A' then the first byte of another literal
			name: "partial literal",
			in:   []byte{0xA0, 0xD0},
			want: []byte("A"),
		},
		{
			// only flag and part of the position of a back-reference
			name: "partial back-reference",
			in:   []byte{0x00},
			want: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			dec := NewDecoder(&out)
			if _, err := dec.Write(tt.in); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(out.Bytes(), tt.want) {
				t.Errorf("decoded %q, want %q", out.Bytes(), tt.want)
			}
			if !dec.Pending() {
				t.Error("Pending() = false, want true")
			}
		})
	}
}

type failingSink struct {
	n   int
	err error
}

func (s *failingSink) WriteByte(c byte) error {
	if s.n == 0 {
		return s.err
	}
	s.n--
	return nil
}

func TestDecoderSinkError(t *testing.T) {
	sinkErr := errors.New("flash write failed")
	dec := NewDecoder(&failingSink{n: 1, err: sinkErr})

	// two literals 'A' 'B': the second write fails
	compressed, err := Compress([]byte("AB"))
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}

	_, err = dec.Write(compressed)
	if !errors.Is(err, sinkErr) {
		t.Fatalf("Write() error = %v, want %v", err, sinkErr)
	}
	if dec.Written() != 1 {
		t.Errorf("Written() = %d, want 1", dec.Written())
	}
}

func TestDecoderReset(t *testing.T) {
	var out bytes.Buffer
	dec := NewDecoder(&out)
	_, _ = dec.Write([]byte{0xA0})
	dec.Reset()

	if dec.Pending() || dec.Written() != 0 {
		t.Error("Reset() left decoder state behind")
	}
}

func TestNewDecoderNilSink(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewDecoder(nil) did not panic")
		}
	}()
	NewDecoder(nil)
}

func BenchmarkDecoder(b *testing.B) {
	input := testInputs()["mixed"]
	compressed, err := Compress(input)
	if err != nil {
		b.Fatal(err)
	}

	var out bytes.Buffer
	dec := NewDecoder(&out)
	b.SetBytes(int64(len(compressed)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out.Reset()
		dec.Reset()
		_, _ = dec.Write(compressed)
	}
}
