package textmodel

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/crypto/blake2b"
)

var ErrInvalidModel = errors.New("invalid model encoding")

// ═══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION: Saving and Loading a TextModel
// ═══════════════════════════════════════════════════════════════════════════════
// A fitted model is its configuration plus its vector space. The configuration
// is enough to rebuild the analyzer, so only the vocabulary, the weights and the
// document bitmaps need to be stored.
//
// BINARY FORMAT (little endian):
// ------------------------------
//
//	[Header]
//	  - Magic:     4 bytes "TXMD"
//	  - Version:   uint16
//	[Config]
//	  - Length:    uint32
//	  - JSON:      bytes
//	[Space]
//	  - NumDocs:   uint32
//	  - Weighting: [length: uint32][bytes]
//	  - NumTerms:  uint32
//	[Terms] (for each id, in id order)
//	  - Token:     [length: uint32][bytes]
//	  - Weight:    float64
//	  - Docs:      [length: uint32][roaring bitmap]
//	[Trailer]
//	  - Checksum:  32 bytes, BLAKE2b-256 of everything before it
//
// Ids are implicit: the i-th term has id i.
// ═══════════════════════════════════════════════════════════════════════════════

var modelMagic = [4]byte{'T', 'X', 'M', 'D'}

const modelVersion uint16 = 2

// Encode serializes the model.
func (m *TextModel) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	e := newModelEncoder(buf)

	buf.Write(modelMagic[:])
	if err := binary.Write(buf, binary.LittleEndian, modelVersion); err != nil {
		return nil, err
	}

	cfg, err := json.Marshal(m.Config())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := e.writeBytes(cfg); err != nil {
		return nil, err
	}

	if err := e.encodeSpace(m.space); err != nil {
		return nil, err
	}

	sum := blake2b.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// modelEncoder accumulates the serialized model.
type modelEncoder struct {
	buffer *bytes.Buffer
}

func newModelEncoder(buffer *bytes.Buffer) *modelEncoder {
	return &modelEncoder{buffer: buffer}
}

func (e *modelEncoder) encodeSpace(vs *VectorSpace) error {
	if err := binary.Write(e.buffer, binary.LittleEndian, uint32(vs.numDocs)); err != nil {
		return err
	}
	if err := e.writeString(string(vs.Weighting)); err != nil {
		return err
	}
	if err := binary.Write(e.buffer, binary.LittleEndian, uint32(len(vs.tokens))); err != nil {
		return err
	}

	for id, token := range vs.tokens {
		if err := e.writeString(token); err != nil {
			return err
		}
		if err := binary.Write(e.buffer, binary.LittleEndian, vs.weights[id]); err != nil {
			return err
		}
		docs, err := vs.docs[id].ToBytes()
		if err != nil {
			return fmt.Errorf("encode documents of %q: %w", token, err)
		}
		if err := e.writeBytes(docs); err != nil {
			return err
		}
	}
	return nil
}

// writeString writes a length-prefixed string
//
// Example: "hola"
//
//	Binary: [0x04, 0x00, 0x00, 0x00, 'h', 'o', 'l', 'a']
func (e *modelEncoder) writeString(s string) error {
	return e.writeBytes([]byte(s))
}

// writeBytes writes a length-prefixed byte array
func (e *modelEncoder) writeBytes(data []byte) error {
	if err := binary.Write(e.buffer, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := e.buffer.Write(data)
	return err
}

// ═══════════════════════════════════════════════════════════════════════════════
// DESERIALIZATION
// ═══════════════════════════════════════════════════════════════════════════════

// DecodeTextModel restores a model written by Encode. The analyzer is rebuilt
// from the stored configuration using res.
func DecodeTextModel(data []byte, res *Resources) (*TextModel, error) {
	d := newModelDecoder(data)

	magic, err := d.next(len(modelMagic))
	if err != nil || !bytes.Equal(magic, modelMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidModel)
	}
	version, err := d.readUint16()
	if err != nil {
		return nil, err
	}
	if version != modelVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidModel, version)
	}

	body := len(data) - blake2b.Size256
	if body < d.offset {
		return nil, fmt.Errorf("%w: truncated at byte %d", ErrInvalidModel, len(data))
	}
	if blake2b.Sum256(data[:body]) != [blake2b.Size256]byte(data[body:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidModel)
	}
	d.data = data[:body]

	rawConfig, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("%w: config: %v", ErrInvalidModel, err)
	}

	if res == nil {
		res = NewResources()
	}
	analyzer, err := NewAnalyzer(cfg, res)
	if err != nil {
		return nil, err
	}

	space, err := d.decodeSpace()
	if err != nil {
		return nil, err
	}
	if !d.isComplete() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidModel, len(d.data)-d.offset)
	}

	return &TextModel{analyzer: analyzer, space: space}, nil
}

// modelDecoder reads the serialized model. Every read is bounds checked so a
// truncated input fails with ErrInvalidModel instead of panicking.
type modelDecoder struct {
	data   []byte
	offset int
}

func newModelDecoder(data []byte) *modelDecoder {
	return &modelDecoder{data: data}
}

func (d *modelDecoder) isComplete() bool {
	return d.offset >= len(d.data)
}

func (d *modelDecoder) next(n int) ([]byte, error) {
	if n < 0 || d.offset+n > len(d.data) {
		return nil, fmt.Errorf("%w: truncated at byte %d", ErrInvalidModel, d.offset)
	}
	b := d.data[d.offset : d.offset+n]
	d.offset += n
	return b, nil
}

func (d *modelDecoder) readUint16() (uint16, error) {
	b, err := d.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *modelDecoder) readUint32() (int, error) {
	b, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(b)), nil
}

func (d *modelDecoder) readFloat64() (float64, error) {
	b, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (d *modelDecoder) readBytes() ([]byte, error) {
	n, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	return d.next(n)
}

func (d *modelDecoder) readString() (string, error) {
	b, err := d.readBytes()
	return string(b), err
}

func (d *modelDecoder) decodeSpace() (*VectorSpace, error) {
	numDocs, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	weighting, err := d.readString()
	if err != nil {
		return nil, err
	}
	numTerms, err := d.readUint32()
	if err != nil {
		return nil, err
	}

	vs := NewVectorSpace(Weighting(weighting))
	vs.numDocs = numDocs
	for id := range numTerms {
		token, err := d.readString()
		if err != nil {
			return nil, err
		}
		weight, err := d.readFloat64()
		if err != nil {
			return nil, err
		}
		raw, err := d.readBytes()
		if err != nil {
			return nil, err
		}
		docs := roaring.NewBitmap()
		if err := docs.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("%w: documents of term %d: %v", ErrInvalidModel, id, err)
		}
		if _, dup := vs.vocabulary[token]; dup {
			return nil, fmt.Errorf("%w: duplicate term %q", ErrInvalidModel, token)
		}

		vs.vocabulary[token] = id
		vs.tokens = append(vs.tokens, token)
		vs.weights = append(vs.weights, weight)
		vs.docs = append(vs.docs, docs)
	}
	return vs, nil
}
