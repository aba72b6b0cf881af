package confluence

import (
	"context"
	"fmt"
	"log"

	"wikirag/internal/domain"
)

const (
	// childPageSize is the fixed page size for child listing calls.
	childPageSize = 50
	// maxListChunk bounds a single flat-listing request.
	maxListChunk = 200
)

// TreeNode is one discovered page of the hierarchy walk.
type TreeNode struct {
	ID    string
	Title string
	Depth int
}

// Walker discovers every page of a space, either as a full hierarchy
// traversal or as a bounded flat listing.
type Walker struct {
	client *Client
	// OnVisit, if set, observes each node as soon as it is discovered.
	// Long traversals report progress through it.
	OnVisit func(TreeNode)
}

func NewWalker(client *Client) *Walker {
	return &Walker{client: client}
}

// ResolveRoot returns the ID and title of the canonical entry point of
// a space: its homepage, or the first listed page when the space has no
// homepage set. Returns ErrNotFound if the space is absent or empty.
func (w *Walker) ResolveRoot(ctx context.Context, spaceKey string) (string, string, error) {
	sp, err := w.client.getSpace(ctx, spaceKey)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", "", fmt.Errorf("space %q: %w", spaceKey, domain.ErrNotFound)
		}
		return "", "", err
	}
	if sp.Homepage != nil && sp.Homepage.ID != "" {
		return sp.Homepage.ID, sp.Homepage.Title, nil
	}
	list, err := w.client.listPages(ctx, spaceKey, 0, 1)
	if err != nil {
		return "", "", err
	}
	if len(list.Results) == 0 {
		return "", "", fmt.Errorf("no pages in space %q: %w", spaceKey, domain.ErrNotFound)
	}
	return list.Results[0].ID, list.Results[0].Title, nil
}

// ListChildren returns every direct child of a page, in listing order.
// Pagination stops when a batch comes back smaller than requested; the
// total-count field of the response is not trusted.
func (w *Walker) ListChildren(ctx context.Context, pageID string) ([]TreeNode, error) {
	var children []TreeNode
	start := 0
	for {
		list, err := w.client.getChildren(ctx, pageID, start, childPageSize)
		if err != nil {
			return nil, err
		}
		for _, p := range list.Results {
			children = append(children, TreeNode{ID: p.ID, Title: p.Title})
		}
		if len(list.Results) < childPageSize {
			return children, nil
		}
		start += len(list.Results)
	}
}

// Walk traverses the subtree rooted at rootID depth-first and returns
// every reachable page exactly once, with its depth, plus the total
// count. A visited set guards against cyclic parent/child metadata;
// the external data is not guaranteed acyclic. A failed child listing
// is logged and that page treated as a leaf; it never aborts the walk.
func (w *Walker) Walk(ctx context.Context, rootID, rootTitle string) ([]TreeNode, int, error) {
	visited := make(map[string]struct{})
	var nodes []TreeNode
	w.walk(ctx, TreeNode{ID: rootID, Title: rootTitle}, visited, &nodes)
	return nodes, len(nodes), nil
}

func (w *Walker) walk(ctx context.Context, node TreeNode, visited map[string]struct{}, nodes *[]TreeNode) {
	if _, ok := visited[node.ID]; ok {
		log.Printf("walker: page %s already visited, skipping (cycle?)", node.ID)
		return
	}
	visited[node.ID] = struct{}{}
	*nodes = append(*nodes, node)
	if w.OnVisit != nil {
		w.OnVisit(node)
	}
	children, err := w.ListChildren(ctx, node.ID)
	if err != nil {
		log.Printf("walker: listing children of page %s failed, continuing without them: %v", node.ID, err)
		return
	}
	for _, child := range children {
		child.Depth = node.Depth + 1
		w.walk(ctx, child, visited, nodes)
	}
}

// ListSpacePages fetches up to limit pages of a space as a flat list,
// in chunks of at most maxListChunk, stopping early when the space has
// fewer pages than requested.
func (w *Walker) ListSpacePages(ctx context.Context, spaceKey string, start, limit int) ([]domain.PageRecord, error) {
	var records []domain.PageRecord
	for limit > 0 {
		chunk := limit
		if chunk > maxListChunk {
			chunk = maxListChunk
		}
		list, err := w.client.listPages(ctx, spaceKey, start, chunk)
		if err != nil {
			return nil, err
		}
		for _, p := range list.Results {
			records = append(records, toPageRecord(p))
		}
		log.Printf("walker: fetched %d pages (total %d)", len(list.Results), len(records))
		if len(list.Results) < chunk {
			break
		}
		start += len(list.Results)
		limit -= len(list.Results)
	}
	return records, nil
}

func toPageRecord(p page) domain.PageRecord {
	rec := domain.PageRecord{
		ID:       p.ID,
		Type:     p.Type,
		Status:   p.Status,
		TinyLink: p.Links.TinyUI,
		Title:    p.Title,
	}
	if len(p.Ancestors) > 0 {
		rec.ParentPageName = p.Ancestors[len(p.Ancestors)-1].Title
	}
	if p.History != nil {
		rec.PublishedDate = p.History.CreatedDate
	}
	return rec
}
