package publishcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-md2confluence/internal/publisher"
)

const (
	publishFileMessageType      = "md2confluence.publish.file"
	publishDirectoryMessageType = "md2confluence.publish.directory"
)

// ResultCallback receives the run summary. It is optional and invoked
// synchronously once the run is over, including when it failed.
type ResultCallback func(publisher.RunSummary)

// PublishFileCommand publishes a single Markdown file.
type PublishFileCommand struct {
	// Path is relative to the configured base directory.
	Path           string         `json:"path"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (PublishFileCommand) Type() string { return publishFileMessageType }

// Validate ensures a Markdown path is present.
func (cmd PublishFileCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(func(value any) error {
			path := strings.TrimSpace(value.(string))
			if path == "" {
				return validation.NewError("md2confluence.publish.file.path_required", "path is required")
			}
			if !strings.EqualFold(pathExt(path), ".md") {
				return validation.NewError("md2confluence.publish.file.path_extension", "path must name a .md file")
			}
			return nil
		})),
	)
}

// PublishDirectoryCommand publishes every Markdown file below Directory.
type PublishDirectoryCommand struct {
	// Directory is relative to the configured base directory; "." is the base itself.
	Directory      string         `json:"directory"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (PublishDirectoryCommand) Type() string { return publishDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd PublishDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("md2confluence.publish.directory.directory_required", "directory is required")
			}
			return nil
		})),
	)
}

func pathExt(p string) string {
	idx := strings.LastIndexByte(p, '.')
	if idx < 0 || strings.ContainsAny(p[idx:], `/\`) {
		return ""
	}
	return p[idx:]
}
