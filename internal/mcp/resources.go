package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	URIStats  = "pdfsearch://stats"
	URIStatus = "pdfsearch://indexing_status"
	URIScope  = "pdfsearch://scope"
	URIFiles  = "pdfsearch://files"
)

// registerResources registers read-only JSON views of the index.
func (s *Server) registerResources() {
	s.addJSONResource("stats", URIStats, "Index statistics", func(ctx context.Context) (any, error) {
		return s.ctl.Stats(ctx)
	})
	s.addJSONResource("indexing_status", URIStatus, "Progress of the current or last indexing run", func(context.Context) (any, error) {
		return toStatusOutput(s.ctl.IndexingStatus()), nil
	})
	s.addJSONResource("scope", URIScope, "The active directory", func(context.Context) (any, error) {
		return s.ctl.GetScope(), nil
	})
	s.addJSONResource("files", URIFiles, "PDF files in the active directory", func(ctx context.Context) (any, error) {
		files, err := s.ctl.ListFiles(ctx)
		if err != nil {
			return nil, err
		}
		if files == nil {
			files = []string{}
		}
		return ListOutput{Items: files}, nil
	})
}

func (s *Server) addJSONResource(name, uri, desc string, load func(context.Context) (any, error)) {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        name,
			URI:         uri,
			Description: desc,
			MIMEType:    "application/json",
		},
		s.makeJSONHandler(uri, load),
	)
}

func (s *Server) makeJSONHandler(uri string, load func(context.Context) (any, error)) mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.readJSON(ctx, uri, load)
	}
}

func (s *Server) readJSON(ctx context.Context, uri string, load func(context.Context) (any, error)) (*mcp.ReadResourceResult, error) {
	v, err := load(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
