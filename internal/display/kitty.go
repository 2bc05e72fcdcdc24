package display

import (
	"encoding/base64"
	"fmt"
	"io"
)

const (
	escapeStart = "\x1b_G"
	escapeEnd   = "\x1b\\"
	chunkSize   = 4096
)

// KittyEncoder writes image bytes as kitty graphics protocol escape
// sequences, chunking payloads the terminal cannot take in one piece.
type KittyEncoder struct {
	out io.Writer
}

func NewKittyEncoder(out io.Writer) *KittyEncoder {
	return &KittyEncoder{out: out}
}

func (e *KittyEncoder) Encode(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	if len(encoded) <= chunkSize {
		_, err := fmt.Fprintf(e.out, "%sa=T,f=100,q=2;%s%s", escapeStart, encoded, escapeEnd)
		return err
	}

	for i := 0; len(encoded) > 0; i++ {
		n := chunkSize
		if len(encoded) < n {
			n = len(encoded)
		}
		chunk := encoded[:n]
		encoded = encoded[n:]

		var params string
		switch {
		case i == 0:
			params = "a=T,f=100,q=2,m=1"
		case len(encoded) == 0:
			params = "m=0"
		default:
			params = "m=1"
		}

		if _, err := fmt.Fprintf(e.out, "%s%s;%s%s", escapeStart, params, chunk, escapeEnd); err != nil {
			return err
		}
	}

	return nil
}
