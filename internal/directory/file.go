package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/pingboard/internal/domain"
)

// FileSource reads a static endpoint list:
//
//	endpoints:
//	  - id: fra-1
//	    name: DE Frankfurt
//	    ip: 155.133.226.1
//	    port: 27015
type FileSource struct {
	Path string
}

type endpointFile struct {
	Endpoints []domain.Endpoint `yaml:"endpoints"`
}

func (f FileSource) Fetch(ctx context.Context) ([]domain.Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read endpoint file: %w", err)
	}
	var doc endpointFile
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse endpoint file: %w", err)
	}

	seen := make(map[domain.EndpointID]bool, len(doc.Endpoints))
	for i, ep := range doc.Endpoints {
		if ep.IP == "" {
			return nil, fmt.Errorf("endpoint %d (%s): ip is required", i, ep.Name)
		}
		if ep.ID != "" && seen[ep.ID] {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		seen[ep.ID] = true
	}
	return doc.Endpoints, nil
}
