package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Note is a play note: one page of the notebook database.
type Note struct {
	ID         string
	Title      string
	Created    time.Time
	DatabaseID string
	CreatorID  string
}

// Attachment is an image embedded in a note.
type Attachment struct {
	ID  string
	URL string
}

// User is the author of a note.
type User struct {
	ID   string
	Name string
}

// PageTitle concatenates the plain text of the page's title property.
func PageTitle(p *notionapi.Page) string {
	for _, prop := range p.Properties {
		tp, ok := prop.(*notionapi.TitleProperty)
		if !ok {
			continue
		}
		var b strings.Builder
		for _, rt := range tp.Title {
			b.WriteString(rt.PlainText)
		}
		return b.String()
	}
	return ""
}

// NoteFromPage converts a page to a Note.
func NoteFromPage(p *notionapi.Page) *Note {
	return &Note{
		ID:         string(p.ID),
		Title:      PageTitle(p),
		Created:    p.CreatedTime,
		DatabaseID: string(p.Parent.DatabaseID),
		CreatorID:  string(p.CreatedBy.ID),
	}
}

// GetNote fetches a page and converts it to a Note.
func GetNote(ctx context.Context, c Client, pageID string) (*Note, error) {
	p, err := c.GetPage(ctx, pageID)
	if err != nil {
		return nil, eris.Wrap(err, "notion: get note")
	}
	return NoteFromPage(p), nil
}

// ListImages returns the image blocks directly under the page, in page order.
func ListImages(ctx context.Context, c Client, pageID string) ([]Attachment, error) {
	var out []Attachment
	cursor := ""
	for {
		resp, err := c.GetBlockChildren(ctx, pageID, cursor)
		if err != nil {
			return nil, eris.Wrap(err, "notion: list images")
		}
		for _, b := range resp.Results {
			img, ok := b.(*notionapi.ImageBlock)
			if !ok {
				continue
			}
			url := imageURL(img.Image)
			if url == "" {
				continue
			}
			out = append(out, Attachment{ID: string(img.ID), URL: url})
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		cursor = string(resp.NextCursor)
	}
}

func imageURL(img notionapi.Image) string {
	if img.File != nil && img.File.URL != "" {
		return img.File.URL
	}
	if img.External != nil {
		return img.External.URL
	}
	return ""
}

// GetUser fetches the author of a note.
func GetUser(ctx context.Context, c Client, userID string) (*User, error) {
	u, err := c.GetUser(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "notion: get user")
	}
	return &User{ID: string(u.ID), Name: u.Name}, nil
}

// SameID reports whether two Notion IDs refer to the same object. IDs are
// compared without dashes and ignoring case.
func SameID(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "-", ""))
	}
	return a != "" && norm(a) == norm(b)
}
