package fetch

import (
	"github.com/ncurl/jobwatch/internal/httpclient"
)

// source carries the identity and HTTP client shared by every fetcher.
type source struct {
	group  string
	name   string
	client *httpclient.Client
}

func (s source) SourceGroup() string { return s.group }
func (s source) SourceName() string  { return s.name }

func newSource(group, name, fallbackName string, client *httpclient.Client) source {
	if name == "" {
		name = fallbackName
	}
	return source{group: group, name: name, client: client}
}
