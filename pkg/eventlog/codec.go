package eventlog

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// The capture stream is a bare concatenation of canonical CBOR maps
// with integer keys. CBOR items are self-delimiting, so the stream
// needs no framing and truncated files stay readable up to the cut.
var stream = newStreamCodec()

type streamCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newStreamCodec() streamCodec {
	enc, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic("eventlog: encoder mode: " + err.Error())
	}
	dec, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic("eventlog: decoder mode: " + err.Error())
	}
	return streamCodec{enc: enc, dec: dec}
}

func (c streamCodec) writer(w io.Writer) *cbor.Encoder {
	return c.enc.NewEncoder(w)
}

func (c streamCodec) reader(r io.Reader) *cbor.Decoder {
	return c.dec.NewDecoder(r)
}
