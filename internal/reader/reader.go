// Package reader turns fetched digital library pages into typed crawler pages.
// Each reader fetches its URL once through the shared fetcher, applies a
// package-level rule table and decodes the raw fields.
package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

// Reader reads every page kind of the collection.
type Reader struct {
	fetcher crawler.Fetcher
	root    string
}

// New returns a Reader resolving links against root (DefaultRoot when empty).
func New(fetcher crawler.Fetcher, root string) (*Reader, error) {
	if fetcher == nil {
		return nil, errors.New("reader: fetcher is required")
	}
	if root == "" {
		root = DefaultRoot
	}
	return &Reader{fetcher: fetcher, root: root}, nil
}

// Root returns the origin links are resolved against.
func (r *Reader) Root() string {
	return r.root
}

// Gateway reads the collection landing page.
func (r *Reader) Gateway(ctx context.Context) (crawler.Gateway, error) {
	url := GatewayURL(r.root)
	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return crawler.Gateway{}, err
	}
	gw, err := ParseGateway(data)
	if err != nil {
		return crawler.Gateway{}, fmt.Errorf("read gateway %s: %w", url, err)
	}
	return gw, nil
}

// List reads the given 1-based result page of year.
func (r *Reader) List(ctx context.Context, year, page int) (crawler.ListPage, error) {
	url := ListURL(r.root, year, page)
	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return crawler.ListPage{}, err
	}
	lp, err := ParseList(data, r.root, year, page)
	if err != nil {
		return crawler.ListPage{}, fmt.Errorf("read list %s: %w", url, err)
	}
	return lp, nil
}

// VotingData reads the voting-data page a Reference points at.
func (r *Reader) VotingData(ctx context.Context, url string) (crawler.DocumentPage, error) {
	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return crawler.DocumentPage{}, err
	}
	page, err := ParseVotingData(data, url, r.root)
	if err != nil {
		return crawler.DocumentPage{}, fmt.Errorf("read voting data %s: %w", url, err)
	}
	return page, nil
}

// Document reads a secondary page of kind.
func (r *Reader) Document(ctx context.Context, kind crawler.Kind, url string) (crawler.DocumentPage, error) {
	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return crawler.DocumentPage{}, err
	}
	page, err := ParseDocument(kind, data, url, r.root)
	if err != nil {
		return crawler.DocumentPage{}, fmt.Errorf("read %s %s: %w", kind, url, err)
	}
	return page, nil
}
