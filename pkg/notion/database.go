package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll returns every page of a database query, following cursors. The
// next page is requested in the background while the current one is copied.
func QueryAll(ctx context.Context, c Client, dbID string, base *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	newReq := func(cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if base != nil {
			req.Filter = base.Filter
			req.Sorts = base.Sorts
			req.PageSize = base.PageSize
		}
		return req
	}

	type page struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	fetch := func(cursor notionapi.Cursor) <-chan page {
		ch := make(chan page, 1)
		go func() {
			resp, err := c.QueryDatabase(ctx, dbID, newReq(cursor))
			ch <- page{resp: resp, err: err}
		}()
		return ch
	}

	var all []notionapi.Page
	next := fetch("")
	for {
		p := <-next
		if p.err != nil {
			return nil, eris.Wrap(p.err, "notion: query all")
		}
		if p.resp.HasMore {
			next = fetch(p.resp.NextCursor)
		}
		all = append(all, p.resp.Results...)
		if !p.resp.HasMore {
			return all, nil
		}
	}
}

// IndexByURL maps the value of the URL property prop to its page ID for
// every page in the database. Pages with an empty value are skipped; the
// first page wins when values repeat.
func IndexByURL(ctx context.Context, c Client, dbID, prop string) (map[string]string, error) {
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: index pages")
	}

	index := make(map[string]string, len(pages))
	for _, p := range pages {
		u := urlValue(p.Properties[prop])
		if u == "" {
			continue
		}
		if _, ok := index[u]; !ok {
			index[u] = string(p.ID)
		}
	}
	return index, nil
}

func urlValue(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.URLProperty:
		return strings.TrimSpace(v.URL)
	case notionapi.URLProperty:
		return strings.TrimSpace(v.URL)
	default:
		return ""
	}
}
