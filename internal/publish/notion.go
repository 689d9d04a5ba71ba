package publish

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/pipeline"
	"github.com/sells-group/leadfinder/pkg/notion"
)

// leadSchema types the output columns as Notion properties.
var leadSchema = notion.Schema{
	Title:   pipeline.OutBusinessName,
	URLs:    []string{pipeline.OutMagicLink, pipeline.OutMapsURL},
	Numbers: []string{pipeline.OutDigitalScore, pipeline.OutReviews, pipeline.OutRating},
}

// Notion writes one page per lead into a database. A lead whose maps URL
// already has a page updates that page instead of creating a duplicate.
type Notion struct {
	client notion.Client
	dbID   string
}

// NewNotion creates a Notion publisher for the database dbID.
func NewNotion(c notion.Client, dbID string) *Notion {
	return &Notion{client: c, dbID: dbID}
}

// Publish implements Publisher.
func (n *Notion) Publish(ctx context.Context, t *pipeline.Table) (pipeline.Outcome, error) {
	if n.dbID == "" {
		return pipeline.Outcome{}, eris.New("publish: notion: lead database id is not configured")
	}

	keyIdx := t.Index(pipeline.OutMapsURL)
	existing := map[string]string{}
	if keyIdx >= 0 {
		var err error
		existing, err = notion.IndexByURL(ctx, n.client, n.dbID, pipeline.OutMapsURL)
		if err != nil {
			return pipeline.Outcome{}, eris.Wrap(err, "publish: notion: index existing leads")
		}
	}

	var created, updated int
	for _, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return pipeline.Outcome{}, eris.Wrap(err, "publish: notion")
		}
		props := leadSchema.Properties(t.Columns, row)

		if keyIdx >= 0 {
			if pageID, ok := existing[strings.TrimSpace(row[keyIdx])]; ok {
				if _, err := n.client.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
					return pipeline.Outcome{}, eris.Wrap(err, "publish: notion: update lead")
				}
				updated++
				continue
			}
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(n.dbID),
			},
			Properties: props,
		}
		if _, err := n.client.CreatePage(ctx, req); err != nil {
			return pipeline.Outcome{}, eris.Wrap(err, "publish: notion: create lead")
		}
		created++
	}

	zap.L().Info("publish: notion leads written", zap.Int("created", created), zap.Int("updated", updated))
	return pipeline.Outcome{
		Target:      TargetNotion,
		Destination: "notion:" + n.dbID,
		Rows:        created + updated,
	}, nil
}
