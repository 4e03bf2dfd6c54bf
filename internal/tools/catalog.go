package tools

import (
	"net/http"
	"time"
)

// CatalogConfig configures the built-in tools.
type CatalogConfig struct {
	HTTPClient    *http.Client
	SerperAPIKey  string
	FetchTimeout  time.Duration
	FetchMaxChars int
	Opener        Opener
}

// NewCatalog returns a registry holding the built-in tools in catalog order.
func NewCatalog(cfg CatalogConfig) *Registry {
	r := NewRegistry()
	for _, t := range []Tool{
		&CreateFileTool{},
		&ReadFileContentTool{},
		&WriteFileTool{},
		&MoveFileTool{},
		&CopyFileTool{},
		&DeleteFileTool{},
		&CreateDirectoryTool{},
		&ListDirectoryTool{},
		&FileInfoTool{},
		&SearchWebTool{Open: cfg.Opener},
		&OpenURLTool{Open: cfg.Opener},
		&WebSearchTool{Client: cfg.HTTPClient, APIKey: cfg.SerperAPIKey},
		&FetchWebpageTool{Client: cfg.HTTPClient, Timeout: cfg.FetchTimeout, MaxChars: cfg.FetchMaxChars},
		&AttachedProcessTool{},
	} {
		r.MustRegister(t)
	}
	return r
}
