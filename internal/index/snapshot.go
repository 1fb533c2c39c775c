package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/odespesse/cli-bloom/internal/bloom"
	"github.com/odespesse/cli-bloom/internal/errors"
)

// Snapshot schema (canonical, the only supported variant):
//
//	{
//	  "error_rate": 0.01,
//	  "bloom_filters": {
//	    "<document key>": {
//	      "key_size": <k>,
//	      "bitfield": [<packed bytes, MSB-first>],
//	      "bitfield_size": <m>
//	    }
//	  }
//	}
//
// Document keys appear in insertion order, which is why marshaling is
// hand-rolled: encoding/json sorts map keys alphabetically and would destroy
// the order that search results derive from.

// Marshal serializes the index to its snapshot form.
func Marshal(x *Index) ([]byte, error) {
	var buf bytes.Buffer

	rate, err := json.Marshal(x.errorRate)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInternal, "failed to encode error rate", err)
	}

	buf.WriteString(`{"error_rate":`)
	buf.Write(rate)
	buf.WriteString(`,"bloom_filters":{`)

	for i, key := range x.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInternal, "failed to encode document key", err)
		}
		buf.Write(encodedKey)

		f := x.filter(key)
		buf.WriteString(`:{"key_size":`)
		buf.WriteString(strconv.FormatUint(f.KeyCount(), 10))
		buf.WriteString(`,"bitfield":[`)
		for j, b := range f.PackedBytes() {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(int(b)))
		}
		buf.WriteString(`],"bitfield_size":`)
		buf.WriteString(strconv.FormatUint(f.BitCount(), 10))
		buf.WriteByte('}')
	}

	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// filterEntry is the decoded per-document snapshot record. Pointer fields
// distinguish a missing field from a zero value.
type filterEntry struct {
	KeySize      *int64 `json:"key_size"`
	Bitfield     *[]int `json:"bitfield"`
	BitfieldSize *int64 `json:"bitfield_size"`
}

// snapshotFilter pairs a decoded filter with its document key, keeping the
// order the keys appeared in the snapshot.
type snapshotFilter struct {
	key    string
	filter *bloom.Filter
}

// Unmarshal reconstructs an index from snapshot data. It walks the JSON
// token stream instead of decoding into a map so that document key order is
// recovered exactly as written. Top-level field order does not matter:
// filters decode on their own and attach to the index once both fields have
// been seen.
//
// Any structural mismatch surfaces as a MalformedSnapshot error; nothing is
// silently defaulted.
func Unmarshal(data []byte) (*Index, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.MalformedSnapshot("snapshot is not a JSON object", err)
	}

	var (
		rate        *float64
		filters     []snapshotFilter
		seenFilters bool
	)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.MalformedSnapshot("truncated snapshot", err)
		}
		field, ok := tok.(string)
		if !ok {
			return nil, errors.MalformedSnapshot("unexpected token in snapshot object", nil)
		}

		switch field {
		case "error_rate":
			if rate != nil {
				return nil, errors.MalformedSnapshot("duplicate error_rate field", nil)
			}
			var r float64
			if err := dec.Decode(&r); err != nil {
				return nil, errors.MalformedSnapshot("error_rate is not a number", err)
			}
			if r <= 0 || r >= 1 {
				return nil, errors.MalformedSnapshot(
					fmt.Sprintf("error_rate %g out of range", r), nil)
			}
			rate = &r
		case "bloom_filters":
			if seenFilters {
				return nil, errors.MalformedSnapshot("duplicate bloom_filters field", nil)
			}
			seenFilters = true
			if filters, err = decodeFilters(dec); err != nil {
				return nil, err
			}
		default:
			return nil, errors.MalformedSnapshot("unknown snapshot field "+strconv.Quote(field), nil)
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, errors.MalformedSnapshot("truncated snapshot", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.MalformedSnapshot("trailing data after snapshot", nil)
	}
	if rate == nil {
		return nil, errors.MalformedSnapshot("missing error_rate field", nil)
	}
	if !seenFilters {
		return nil, errors.MalformedSnapshot("missing bloom_filters field", nil)
	}

	x, err := New(*rate)
	if err != nil {
		return nil, errors.MalformedSnapshot(
			fmt.Sprintf("error_rate %g out of range", *rate), err)
	}
	for _, sf := range filters {
		x.restoreFilter(sf.key, sf.filter)
	}
	return x, nil
}

// decodeFilters reads the bloom_filters object, preserving key order.
func decodeFilters(dec *json.Decoder) ([]snapshotFilter, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.MalformedSnapshot("bloom_filters is not an object", err)
	}

	var (
		filters []snapshotFilter
		seen    = make(map[string]struct{})
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.MalformedSnapshot("truncated bloom_filters object", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.MalformedSnapshot("unexpected token in bloom_filters object", nil)
		}

		var entry filterEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, errors.MalformedSnapshot(
				"invalid filter entry for document "+strconv.Quote(key), err)
		}

		f, err := entryToFilter(&entry)
		if err != nil {
			return nil, errors.MalformedSnapshot(
				"invalid filter entry for document "+strconv.Quote(key), err)
		}

		if _, dup := seen[key]; dup {
			return nil, errors.MalformedSnapshot(
				"duplicate document key "+strconv.Quote(key), nil)
		}
		seen[key] = struct{}{}
		filters = append(filters, snapshotFilter{key: key, filter: f})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, errors.MalformedSnapshot("truncated bloom_filters object", err)
	}
	return filters, nil
}

// entryToFilter validates a decoded entry and rebuilds its filter.
func entryToFilter(entry *filterEntry) (*bloom.Filter, error) {
	if entry.KeySize == nil {
		return nil, fmt.Errorf("missing key_size")
	}
	if entry.Bitfield == nil {
		return nil, fmt.Errorf("missing bitfield")
	}
	if entry.BitfieldSize == nil {
		return nil, fmt.Errorf("missing bitfield_size")
	}
	if *entry.KeySize < 1 {
		return nil, fmt.Errorf("key_size %d must be positive", *entry.KeySize)
	}
	if *entry.BitfieldSize < 1 {
		return nil, fmt.Errorf("bitfield_size %d must be positive", *entry.BitfieldSize)
	}

	packed := make([]byte, len(*entry.Bitfield))
	for i, v := range *entry.Bitfield {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("bitfield value %d at offset %d is not a byte", v, i)
		}
		packed[i] = byte(v)
	}

	return bloom.FromPacked(uint64(*entry.KeySize), packed, uint64(*entry.BitfieldSize))
}

// expectDelim consumes one token and requires it to be the given delimiter.
func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
