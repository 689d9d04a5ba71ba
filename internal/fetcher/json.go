package fetcher

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"unicode"

	"github.com/rotisserie/eris"
)

// DecodeJSONArray decodes a JSON array streaming, sending each element to a channel.
// Expects input in the form [{...},{...}].
// Both channels are closed when processing completes.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)
		decoder.UseNumber()

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}
	}()

	return outCh, errCh
}

// ReadJSON parses either a JSON array of objects or JSON lines, one object
// per line. Null values are left out of the record; numbers keep their
// source text; nested objects and arrays are kept as compact JSON text.
func ReadJSON(ctx context.Context, r io.Reader) (*RecordSet, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err == io.EOF {
		return &RecordSet{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "json: peek")
	}

	b := newSetBuilder()
	if first == '[' {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		objCh, errCh := DecodeJSONArray[map[string]any](ctx, br)
		for obj := range objCh {
			if err := b.add(obj); err != nil {
				return nil, err
			}
		}
		if err := <-errCh; err != nil {
			return nil, err
		}
		return b.set, nil
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "json: context cancelled")
		}
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, eris.Wrap(err, "json: decode line")
		}
		if err := b.add(obj); err != nil {
			return nil, err
		}
	}
	return b.set, nil
}

func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		r, _, err := br.ReadRune()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(r) && r != '\uFEFF' {
			if err := br.UnreadRune(); err != nil {
				return 0, err
			}
			if r > 0x7f {
				return '?', nil
			}
			return byte(r), nil
		}
	}
}

// setBuilder accumulates records and the union of their keys in first-seen
// order.
type setBuilder struct {
	set  *RecordSet
	seen map[string]bool
}

func newSetBuilder() *setBuilder {
	return &setBuilder{set: &RecordSet{}, seen: make(map[string]bool)}
}

func (b *setBuilder) add(obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := make(Record, len(obj))
	for _, k := range keys {
		if !b.seen[k] {
			b.seen[k] = true
			b.set.Columns = append(b.set.Columns, k)
		}
		v, ok, err := jsonCell(obj[k])
		if err != nil {
			return eris.Wrapf(err, "json: encode field %s", k)
		}
		if ok {
			rec[k] = v
		}
	}
	b.set.Records = append(b.set.Records, rec)
	return nil
}

func jsonCell(v any) (string, bool, error) {
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, t != "", nil
	case json.Number:
		return t.String(), true, nil
	case bool:
		return strconv.FormatBool(t), true, nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	}
}
