package interfaces

import (
	"context"
	"io"
)

// ConfluenceClient lists the REST operations the publisher relies on.
type ConfluenceClient interface {
	FindPageByTitle(ctx context.Context, spaceKey, title string) (*Page, error)
	GetPage(ctx context.Context, pageID string) (*Page, error)
	CreatePage(ctx context.Context, input PageInput) (*Page, error)
	UpdatePage(ctx context.Context, pageID string, input PageInput, version int) (*Page, error)
	AddLabels(ctx context.Context, pageID string, labels []string) error
	ListAttachments(ctx context.Context, pageID string) ([]Attachment, error)
	UploadAttachment(ctx context.Context, pageID, filename string, content io.Reader) (*Attachment, error)
}

// Page is the subset of a remote page the publisher cares about.
type Page struct {
	ID       string
	Title    string
	SpaceKey string
	Version  int
	// ParentID is only known for pages created in this run.
	ParentID string
}

// PageInput describes the body of a create or update request.
type PageInput struct {
	SpaceKey       string
	Title          string
	Body           string
	Representation Representation
	// ParentID is only honoured on create.
	ParentID string
}

// Attachment is a file attached to a page.
type Attachment struct {
	ID    string
	Title string
}
