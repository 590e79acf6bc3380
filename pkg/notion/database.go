package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches all pages from a Notion database, following cursors until
// the result is exhausted. Filter and sorts from query are applied to every
// request.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}

		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if query != nil {
			req.Filter = query.Filter
			req.Sorts = query.Sorts
			req.PageSize = query.PageSize
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// QueryNotes returns every page of the notebook database, oldest first.
func QueryNotes(ctx context.Context, c Client, dbID string) ([]notionapi.Page, error) {
	pages, err := QueryAll(ctx, c, dbID, &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{{
			Timestamp: notionapi.TimestampCreated,
			Direction: notionapi.SortOrderASC,
		}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: query notes")
	}
	return pages, nil
}
