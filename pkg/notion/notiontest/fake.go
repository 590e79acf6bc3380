// Package notiontest provides an in-memory notion.Client for tests.
package notiontest

import (
	"context"
	"sync"
	"time"

	"github.com/jomei/notionapi"
)

// Fake is an in-memory notebook. Add notes with AddNote; unknown IDs return
// a 404 notionapi.Error.
type Fake struct {
	mu       sync.Mutex
	pages    map[string]*notionapi.Page
	children map[string][]notionapi.Block
	users    map[string]*notionapi.User
	order    []string

	// Err, when set, is returned by every call.
	Err error
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{
		pages:    make(map[string]*notionapi.Page),
		children: make(map[string][]notionapi.Block),
		users:    make(map[string]*notionapi.User),
	}
}

// Image describes an image attachment of a fake note.
type Image struct {
	ID  string
	URL string
}

// AddNote stores a note page in database dbID with the given title and
// image attachments.
func (f *Fake) AddNote(dbID, id, title string, created time.Time, creatorID string, images ...Image) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pages[id] = &notionapi.Page{
		ID:          notionapi.ObjectID(id),
		CreatedTime: created,
		CreatedBy:   notionapi.User{ID: notionapi.UserID(creatorID)},
		Parent:      notionapi.Parent{DatabaseID: notionapi.DatabaseID(dbID)},
		Properties: notionapi.Properties{
			"Name": &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: title}}},
		},
	}
	blocks := make([]notionapi.Block, 0, len(images))
	for _, img := range images {
		blocks = append(blocks, &notionapi.ImageBlock{
			BasicBlock: notionapi.BasicBlock{ID: notionapi.BlockID(img.ID), Type: notionapi.BlockTypeImage},
			Image:      notionapi.Image{Type: notionapi.FileTypeFile, File: &notionapi.FileObject{URL: img.URL}},
		})
	}
	f.children[id] = blocks
	f.order = append(f.order, id)
}

// AddUser registers a user that GetUser can resolve.
func (f *Fake) AddUser(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &notionapi.User{ID: notionapi.UserID(id), Name: name}
}

func notFound() error {
	return &notionapi.Error{Status: 404, Code: "object_not_found", Message: "not found"}
}

func (f *Fake) QueryDatabase(_ context.Context, dbID string, _ *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	resp := &notionapi.DatabaseQueryResponse{}
	for _, id := range f.order {
		if p := f.pages[id]; string(p.Parent.DatabaseID) == dbID {
			resp.Results = append(resp.Results, *p)
		}
	}
	return resp, nil
}

func (f *Fake) GetPage(_ context.Context, pageID string) (*notionapi.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	p, ok := f.pages[pageID]
	if !ok {
		return nil, notFound()
	}
	cp := *p
	return &cp, nil
}

func (f *Fake) GetBlockChildren(_ context.Context, blockID string, _ string) (*notionapi.GetChildrenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	blocks, ok := f.children[blockID]
	if !ok {
		return nil, notFound()
	}
	return &notionapi.GetChildrenResponse{Results: blocks}, nil
}

func (f *Fake) GetUser(_ context.Context, userID string) (*notionapi.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, notFound()
	}
	return u, nil
}
