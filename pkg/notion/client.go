// Package notion wraps the Notion API for reading play notes: pages of the
// notebook database, their image blocks and the users who wrote them.
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Notion API operations used by this application.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	GetPage(ctx context.Context, pageID string) (*notionapi.Page, error)
	GetBlockChildren(ctx context.Context, blockID string, cursor string) (*notionapi.GetChildrenResponse, error)
	GetUser(ctx context.Context, userID string) (*notionapi.User, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default Notion rate limit (3 req/s). A
// non-positive value disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// notionClient implements Client by wrapping a *notionapi.Client.
type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
}

// NewClient creates a new Notion client with the given integration token.
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	return nil
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: query database %s", dbID))
	}
	return resp, nil
}

func (c *notionClient) GetPage(ctx context.Context, pageID string) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.inner.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: get page %s", pageID))
	}
	return page, nil
}

func (c *notionClient) GetBlockChildren(ctx context.Context, blockID string, cursor string) (*notionapi.GetChildrenResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.inner.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    100,
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: get children of %s", blockID))
	}
	return resp, nil
}

func (c *notionClient) GetUser(ctx context.Context, userID string) (*notionapi.User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	user, err := c.inner.User.Get(ctx, notionapi.UserID(userID))
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: get user %s", userID))
	}
	return user, nil
}
