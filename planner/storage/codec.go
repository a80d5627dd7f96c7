package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/wbrown/janus-planner/planner"
)

// Value encoding: one type tag byte followed by the payload. Strings and
// byte counts use uvarint lengths. Only the planner's value types are
// representable; anything else fails loudly at save time.
const (
	tagNil = iota
	tagString
	tagInt
	tagFloat
	tagBoolTrue
	tagBoolFalse
	tagTime
)

// EncodeFacts serialises triples into a self-contained byte buffer.
func EncodeFacts(facts []planner.Fact) ([]byte, error) {
	var buf bytes.Buffer
	writeUvarint(&buf, uint64(len(facts)))
	for _, f := range facts {
		writeString(&buf, f.Predicate)
		writeString(&buf, f.Subject)
		if err := writeValue(&buf, f.Value); err != nil {
			return nil, fmt.Errorf("fact %s: %w", f, err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeFacts is the inverse of EncodeFacts.
func DecodeFacts(data []byte) ([]planner.Fact, error) {
	buf := bytes.NewReader(data)
	n, err := binary.ReadUvarint(buf)
	if err != nil {
		return nil, fmt.Errorf("fact count: %w", err)
	}
	facts := make([]planner.Fact, 0, n)
	for i := uint64(0); i < n; i++ {
		pred, err := readString(buf)
		if err != nil {
			return nil, fmt.Errorf("fact %d predicate: %w", i, err)
		}
		subj, err := readString(buf)
		if err != nil {
			return nil, fmt.Errorf("fact %d subject: %w", i, err)
		}
		val, err := readValue(buf)
		if err != nil {
			return nil, fmt.Errorf("fact %d value: %w", i, err)
		}
		facts = append(facts, planner.Fact{Predicate: pred, Subject: subj, Value: val})
	}
	return facts, nil
}

func writeUvarint(buf *bytes.Buffer, n uint64) {
	var tmp [binary.MaxVarintLen64]byte
	buf.Write(tmp[:binary.PutUvarint(tmp[:], n)])
}

func writeVarint(buf *bytes.Buffer, n int64) {
	var tmp [binary.MaxVarintLen64]byte
	buf.Write(tmp[:binary.PutVarint(tmp[:], n)])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(buf *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(buf)
	if err != nil {
		return "", err
	}
	if n > uint64(buf.Len()) {
		return "", fmt.Errorf("string length %d exceeds remaining %d bytes", n, buf.Len())
	}
	out := make([]byte, n)
	if _, err := buf.Read(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func writeValue(buf *bytes.Buffer, v planner.Value) error {
	switch v := v.(type) {
	case nil:
		buf.WriteByte(tagNil)
	case string:
		buf.WriteByte(tagString)
		writeString(buf, v)
	case int:
		buf.WriteByte(tagInt)
		writeVarint(buf, int64(v))
	case int64:
		buf.WriteByte(tagInt)
		writeVarint(buf, v)
	case float64:
		buf.WriteByte(tagFloat)
		var bits [8]byte
		binary.BigEndian.PutUint64(bits[:], math.Float64bits(v))
		buf.Write(bits[:])
	case bool:
		if v {
			buf.WriteByte(tagBoolTrue)
		} else {
			buf.WriteByte(tagBoolFalse)
		}
	case time.Time:
		buf.WriteByte(tagTime)
		writeVarint(buf, v.UnixNano())
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func readValue(buf *bytes.Reader) (planner.Value, error) {
	tag, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNil:
		return nil, nil
	case tagString:
		return readString(buf)
	case tagInt:
		return binary.ReadVarint(buf)
	case tagFloat:
		var bits [8]byte
		if _, err := buf.Read(bits[:]); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(bits[:])), nil
	case tagBoolTrue:
		return true, nil
	case tagBoolFalse:
		return false, nil
	case tagTime:
		ns, err := binary.ReadVarint(buf)
		if err != nil {
			return nil, err
		}
		return time.Unix(0, ns).UTC(), nil
	}
	return nil, fmt.Errorf("unknown value tag %d", tag)
}
