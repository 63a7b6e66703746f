package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-md2confluence/internal/logging"
	"github.com/goliatone/go-md2confluence/internal/markdown"
	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

// Service exposes the publish workflow.
type Service interface {
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
	EnsureParent(ctx context.Context, folder string) (string, error)
	PublishDocument(ctx context.Context, doc *interfaces.Document) (*PublishResult, error)
	PublishAll(ctx context.Context, docs []*interfaces.Document) RunSummary
}

// Config holds the values every publish shares.
type Config struct {
	BaseURL        string
	SpaceKey       string
	Representation interfaces.Representation
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithLogger overrides the logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithImages sets the filesystem image targets are resolved against.
func WithImages(images fs.FS) ServiceOption {
	return func(s *service) {
		s.images = images
	}
}

// WithDryRun converts and logs without touching the remote service.
func WithDryRun(enabled bool) ServiceOption {
	return func(s *service) {
		s.dryRun = enabled
	}
}

// WithClock overrides the clock used to time runs.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

type service struct {
	client    interfaces.ConfluenceClient
	converter interfaces.MarkdownConverter
	cfg       Config
	images    fs.FS
	dryRun    bool
	logger    interfaces.Logger
	now       func() time.Time
}

// NewService wires the publisher around a REST client and a converter.
func NewService(client interfaces.ConfluenceClient, converter interfaces.MarkdownConverter, cfg Config, opts ...ServiceOption) Service {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Representation == "" {
		cfg.Representation = interfaces.RepresentationWiki
	}
	s := &service{
		client:    client,
		converter: converter,
		cfg:       cfg,
		logger:    logging.NoOp(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageURL builds the view link of a page id.
func PageURL(baseURL, pageID string) string {
	return strings.TrimRight(baseURL, "/") + "/pages/viewpage.action?pageId=" + pageID
}

// Publish creates or updates the page titled req.Title, then labels it and
// uploads its images.
func (s *service) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if s.cfg.SpaceKey == "" {
		return nil, ErrSpaceKeyRequired
	}
	logger := logging.WithDocumentContext(s.logger.WithContext(ctx), "", title, "")

	if s.dryRun {
		logger.Info("publisher.page.dry_run",
			"images", len(req.Images),
			"tags", len(req.Tags),
			"parent_id", req.ParentID,
		)
		return &PublishResult{DryRun: true}, nil
	}

	input := interfaces.PageInput{
		SpaceKey:       s.cfg.SpaceKey,
		Title:          title,
		Body:           req.Markup,
		Representation: s.cfg.Representation,
		ParentID:       req.ParentID,
	}

	result := &PublishResult{}
	existing, err := s.client.FindPageByTitle(ctx, s.cfg.SpaceKey, title)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		page, err := s.client.CreatePage(ctx, input)
		if err != nil {
			return nil, err
		}
		result.Page = page
		result.Created = true
	} else {
		// The version is re-read right before the write; no caching.
		current, err := s.client.GetPage(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		input.ParentID = ""
		page, err := s.client.UpdatePage(ctx, existing.ID, input, current.Version+1)
		if err != nil {
			return nil, err
		}
		result.Page = page
	}

	result.URL = PageURL(s.cfg.BaseURL, result.Page.ID)
	logger = logging.WithDocumentContext(logger, "", "", result.Page.ID)
	logger.Info("publisher.page.published",
		"created", result.Created,
		"version", result.Page.Version,
		"url", result.URL,
	)

	if len(req.Tags) > 0 {
		if err := s.client.AddLabels(ctx, result.Page.ID, req.Tags); err != nil {
			result.LabelError = err
			logger.Warn("publisher.labels.failed", "labels", req.Tags, "error", err)
		}
	}

	if err := s.uploadImages(ctx, logger, result, req.Images); err != nil {
		return result, err
	}
	return result, nil
}

func (s *service) uploadImages(ctx context.Context, logger interfaces.Logger, result *PublishResult, images []string) error {
	if len(images) == 0 {
		return nil
	}

	var present map[string]bool
	for _, target := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		if markdown.IsRemoteTarget(target) {
			result.Skipped = append(result.Skipped, target)
			continue
		}

		name := path.Base(target)
		file, err := s.openImage(target)
		if err != nil {
			warning := fmt.Sprintf("image %s not found: %v", target, err)
			result.Warnings = append(result.Warnings, warning)
			logger.Warn("publisher.image.missing", "image", target, "error", err)
			continue
		}

		if present == nil {
			present, err = s.attachmentNames(ctx, result.Page.ID)
			if err != nil {
				file.Close()
				warning := fmt.Sprintf("attachments of page %s could not be listed: %v", result.Page.ID, err)
				result.Warnings = append(result.Warnings, warning)
				logger.Warn("publisher.attachments.list_failed", "error", err)
				return nil
			}
		}
		if present[name] {
			file.Close()
			result.Skipped = append(result.Skipped, name)
			logger.Debug("publisher.image.exists", "image", name)
			continue
		}

		_, err = s.client.UploadAttachment(ctx, result.Page.ID, name, file)
		file.Close()
		if err != nil {
			warning := fmt.Sprintf("image %s upload failed: %v", name, err)
			result.Warnings = append(result.Warnings, warning)
			logger.Warn("publisher.image.upload_failed", "image", name, "error", err)
			continue
		}
		present[name] = true
		result.Uploaded = append(result.Uploaded, name)
		logger.Info("publisher.image.uploaded", "image", name)
	}
	return nil
}

func (s *service) attachmentNames(ctx context.Context, pageID string) (map[string]bool, error) {
	attachments, err := s.client.ListAttachments(ctx, pageID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(attachments))
	for _, att := range attachments {
		names[att.Title] = true
	}
	return names, nil
}

func (s *service) openImage(target string) (io.ReadCloser, error) {
	if s.images == nil {
		return nil, fs.ErrNotExist
	}
	name := path.Clean(strings.TrimPrefix(strings.TrimSpace(target), "/"))
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: target, Err: fs.ErrInvalid}
	}
	file, err := s.images.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, &fs.PathError{Op: "open", Path: target, Err: fs.ErrNotExist}
	}
	return file, nil
}

// EnsureParent returns the id of the page titled folder, creating an empty
// placeholder when it does not exist. An empty folder has no parent.
func (s *service) EnsureParent(ctx context.Context, folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" || folder == "." {
		return "", nil
	}
	if s.cfg.SpaceKey == "" {
		return "", ErrSpaceKeyRequired
	}
	if s.dryRun {
		return "", nil
	}

	existing, err := s.client.FindPageByTitle(ctx, s.cfg.SpaceKey, folder)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	page, err := s.client.CreatePage(ctx, interfaces.PageInput{
		SpaceKey:       s.cfg.SpaceKey,
		Title:          folder,
		Body:           "",
		Representation: s.cfg.Representation,
	})
	if err != nil {
		return "", err
	}
	logging.WithDocumentContext(s.logger.WithContext(ctx), "", folder, page.ID).Info("publisher.parent.created",
		"url", PageURL(s.cfg.BaseURL, page.ID),
	)
	return page.ID, nil
}

// PublishDocument converts doc, resolves its folder parent and publishes it.
func (s *service) PublishDocument(ctx context.Context, doc *interfaces.Document) (*PublishResult, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	converted := s.converter.Convert(string(doc.Source), interfaces.ConvertOptions{
		BaseURL:  s.cfg.BaseURL,
		SpaceKey: s.cfg.SpaceKey,
	})
	logging.WithDocumentContext(s.logger.WithContext(ctx), doc.FilePath, doc.Title, "").Debug("publisher.document.converted",
		"images", len(converted.Images),
		"tags", len(converted.Tags),
		"bytes", len(converted.Markup),
	)

	parentID, err := s.EnsureParent(ctx, doc.Folder)
	if err != nil {
		return nil, fmt.Errorf("resolve parent %q: %w", doc.Folder, err)
	}

	return s.Publish(ctx, PublishRequest{
		Title:    doc.Title,
		Markup:   converted.Markup,
		Images:   converted.Images,
		Tags:     mergeTags(converted.Tags, doc.FrontMatter.Tags),
		ParentID: parentID,
	})
}

// PublishAll publishes docs one after another. A failing document is logged
// and counted; the run continues unless ctx is cancelled.
func (s *service) PublishAll(ctx context.Context, docs []*interfaces.Document) RunSummary {
	started := s.now()
	summary := RunSummary{}
	logger := s.logger.WithContext(ctx)

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			summary.record(DocumentResult{FilePath: doc.FilePath, Title: doc.Title, Err: err})
			continue
		}

		res, err := s.PublishDocument(ctx, doc)
		summary.record(DocumentResult{FilePath: doc.FilePath, Title: doc.Title, Result: res, Err: err})
		if err != nil {
			logging.WithDocumentContext(logger, doc.FilePath, doc.Title, "").Error("publisher.document.failed",
				"error", err,
				"cancelled", errors.Is(err, context.Canceled),
			)
		}
	}

	summary.Duration = s.now().Sub(started)
	logger.Info("publisher.run.completed",
		"total", summary.Total,
		"created", summary.Created,
		"updated", summary.Updated,
		"dry_run", summary.DryRun,
		"failed", summary.Failed,
		"warnings", summary.Warnings,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary
}

// mergeTags appends front matter tags to the inline tags, dropping front
// matter entries that are already present.
func mergeTags(inline, front []string) []string {
	if len(front) == 0 {
		return inline
	}
	seen := make(map[string]bool, len(inline))
	out := make([]string, 0, len(inline)+len(front))
	for _, tag := range inline {
		seen[tag] = true
		out = append(out, tag)
	}
	for _, tag := range front {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
