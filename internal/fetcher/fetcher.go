// Package fetcher reads scraped listing record sets from CSV, XLSX, JSON and
// JSON-lines files, local or served over HTTP or FTP.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one row keyed by column name. A missing key means the cell was
// empty or null in the source.
type Record map[string]string

// Get returns the cell for col and whether it holds a value.
func (r Record) Get(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// RecordSet is a parsed source: its header columns in file order and rows.
type RecordSet struct {
	Columns []string
	Records []Record
}

// HasColumn reports whether col appears in the source header.
func (s *RecordSet) HasColumn(col string) bool {
	for _, c := range s.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Format is a record set file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// DetectFormat picks the format from the file extension of a path or URL.
func DetectFormat(src string) (Format, error) {
	p := src
	if IsRemote(src) {
		u, err := url.Parse(src)
		if err != nil {
			return "", eris.Wrapf(err, "fetcher: parse url %s", src)
		}
		p = u.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", eris.Errorf("fetcher: unsupported source format %q", src)
	}
}

// IsRemote reports whether src is an http(s) or ftp URL.
func IsRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "ftp://")
}

// Downloader fetches remote sources.
type Downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// SchemeMux routes each download to the Downloader registered for its URL
// scheme.
type SchemeMux map[string]Downloader

// Download implements Downloader.
func (m SchemeMux) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %s", rawURL)
	}
	d, ok := m[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, eris.Errorf("fetcher: no downloader for scheme %q", u.Scheme)
	}
	return d.Download(ctx, rawURL)
}

// Reader loads record sets from local paths or, through its Downloader,
// from URLs.
type Reader struct {
	downloader Downloader
}

// NewReader creates a Reader. A nil downloader rejects remote sources.
func NewReader(d Downloader) *Reader {
	return &Reader{downloader: d}
}

// Read parses the record set at src.
func (r *Reader) Read(ctx context.Context, src string) (*RecordSet, error) {
	format, err := DetectFormat(src)
	if err != nil {
		return nil, err
	}

	body, err := r.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	switch format {
	case FormatCSV:
		return ReadCSV(ctx, body, CSVOptions{})
	case FormatXLSX:
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read %s", src)
		}
		return ReadXLSX(data, XLSXOptions{})
	default:
		return ReadJSON(ctx, body)
	}
}

func (r *Reader) open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !IsRemote(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", src)
		}
		return f, nil
	}
	if r.downloader == nil {
		return nil, eris.Errorf("fetcher: no downloader configured for %s", src)
	}
	return r.downloader.Download(ctx, src)
}
