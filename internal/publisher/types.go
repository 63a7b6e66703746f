package publisher

import (
	"errors"
	"time"

	"github.com/goliatone/go-md2confluence/pkg/interfaces"
)

var (
	// ErrTitleRequired is returned when a publish request has no title.
	ErrTitleRequired = errors.New("publisher: title is required")
	// ErrSpaceKeyRequired is returned when the service was built without a space key.
	ErrSpaceKeyRequired = errors.New("publisher: space key is required")
	// ErrDocumentRequired is returned when PublishDocument receives nil.
	ErrDocumentRequired = errors.New("publisher: document is required")
)

// PublishRequest is one page worth of converted content.
type PublishRequest struct {
	Title    string
	Markup   string
	Images   []string
	Tags     []string
	ParentID string
}

// PublishResult records what a publish did to the remote page.
type PublishResult struct {
	Page    *interfaces.Page
	Created bool
	// URL is the page view link, empty on dry runs.
	URL string
	// Uploaded lists attachment file names sent in this run.
	Uploaded []string
	// Skipped lists images that were not uploaded: remote targets and
	// attachments already present on the page.
	Skipped []string
	// Warnings holds non fatal problems such as missing image files.
	Warnings []string
	// LabelError is set when the label request failed. The page write stands.
	LabelError error
	DryRun     bool
}

// DocumentResult pairs a loaded document with its publish outcome.
type DocumentResult struct {
	FilePath string
	Title    string
	Result   *PublishResult
	Err      error
}

// RunSummary aggregates the outcome of PublishAll.
type RunSummary struct {
	Total    int
	Created  int
	Updated  int
	DryRun   int
	Failed   int
	Warnings int
	Duration time.Duration
	Results  []DocumentResult
}

// HasFailures reports whether any document failed to publish.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}

// Failures returns the failed document results in processing order.
func (s RunSummary) Failures() []DocumentResult {
	var out []DocumentResult
	for _, res := range s.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func (s *RunSummary) record(res DocumentResult) {
	s.Total++
	s.Results = append(s.Results, res)
	if res.Err != nil {
		s.Failed++
		return
	}
	if res.Result == nil {
		return
	}
	s.Warnings += len(res.Result.Warnings)
	if res.Result.LabelError != nil {
		s.Warnings++
	}
	switch {
	case res.Result.DryRun:
		s.DryRun++
	case res.Result.Created:
		s.Created++
	default:
		s.Updated++
	}
}
