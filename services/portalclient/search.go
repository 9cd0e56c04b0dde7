package portalclient

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const companySearchSize = 50

// CompanyOption is one entry of the companies dropdown.
type CompanyOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompanySearch caches the answers of DropdownCompanies per query.
type CompanySearch struct {
	client *Client
	cache  *lru.Cache[string, []CompanyOption]
}

func newCompanySearch(client *Client) *CompanySearch {
	cache, _ := lru.New[string, []CompanyOption](companySearchSize) // only fails on a size <= 0
	return &CompanySearch{client: client, cache: cache}
}

// Companies returns the cached company search of the client.
func (c *Client) CompanySearch() *CompanySearch { return c.companies }

// Search answers from the cache or asks the API; failed answers are not cached.
func (s *CompanySearch) Search(ctx context.Context, query string) ([]CompanyOption, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if opts, ok := s.cache.Get(key); ok {
		return opts, nil
	}
	resp := s.client.DropdownCompanies(ctx, key)
	if !resp.Success {
		return nil, &RequestError{Message: resp.Message, StatusCode: resp.StatusCode}
	}
	var opts []CompanyOption
	if err := resp.Decode("companies", &opts); err != nil {
		return nil, err
	}
	s.cache.Add(key, opts)
	return opts, nil
}

// Purge drops every cached answer, e.g. after a company was added.
func (s *CompanySearch) Purge() { s.cache.Purge() }

func (s *CompanySearch) Len() int { return s.cache.Len() }
