package md2confluence

import "github.com/goliatone/go-md2confluence/internal/runtimeconfig"

var (
	ErrBaseURLRequired         = runtimeconfig.ErrBaseURLRequired
	ErrBaseURLInvalid          = runtimeconfig.ErrBaseURLInvalid
	ErrSpaceKeyRequired        = runtimeconfig.ErrSpaceKeyRequired
	ErrCredentialRequired      = runtimeconfig.ErrCredentialRequired
	ErrPasswordRequired        = runtimeconfig.ErrPasswordRequired
	ErrBaseDirRequired         = runtimeconfig.ErrBaseDirRequired
	ErrRepresentationInvalid   = runtimeconfig.ErrRepresentationInvalid
	ErrTimeoutInvalid          = runtimeconfig.ErrTimeoutInvalid
	ErrRetryAttemptsInvalid    = runtimeconfig.ErrRetryAttemptsInvalid
	ErrEnvValueInvalid         = runtimeconfig.ErrEnvValueInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	ConfluenceConfig = runtimeconfig.ConfluenceConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	PublishConfig    = runtimeconfig.PublishConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// ConfigFromEnv overlays environment values on DefaultConfig.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	return runtimeconfig.FromEnv(lookup)
}
