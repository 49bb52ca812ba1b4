// Package search ranks catalog content against free-text queries.
//
// Relevance blends three signals: the full-text rank over the derived search
// tiers, trigram similarity between the query and the content name, and
// trigram similarity between the query and the parent device name. The blend
// weights come from configuration and default to 0.5 / 0.3 / 0.2.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	"github.com/audio-forge-rs/find-all-bitwig/internal/config"
	"github.com/audio-forge-rs/find-all-bitwig/internal/vector"
)

// Engine executes ranked searches against a catalog store.
type Engine struct {
	store      *catalog.Store
	sim        *Similarity
	lexWeight  float64
	nameWeight float64
	devWeight  float64
	floor      float64
	defLimit   int
}

// NewEngine builds an Engine over store using the given search configuration.
func NewEngine(store *catalog.Store, cfg config.SearchConfig) *Engine {
	return &Engine{
		store:      store,
		sim:        NewSimilarity(cfg.TrigramCacheSize),
		lexWeight:  cfg.LexicalWeight,
		nameWeight: cfg.NameWeight,
		devWeight:  cfg.DeviceWeight,
		floor:      cfg.SimilarityFloor,
		defLimit:   cfg.DefaultLimit,
	}
}

// Query is one search request.
type Query struct {
	// Text is the free-text query. Empty text means "browse": filters only,
	// ordered by name.
	Text string

	// Filters restrict the candidate set before ranking.
	Filters catalog.Filters

	// Limit and Offset paginate the ranked result list. Limit <= 0 uses the
	// configured default.
	Limit  int
	Offset int
}

// Results is a ranked result page plus the total match count across all pages.
type Results struct {
	Items []catalog.SearchResult `json:"items"`
	Total int                    `json:"total"`
}

// Search runs a ranked query.
//
// A candidate matches when any of these holds: its search tiers match the
// full-text query, the query is a substring of its name or parent device
// (case-insensitive), or query-to-name trigram similarity clears the floor.
// Matches are ordered by blended relevance descending, ties by name ascending
// so equal-scored results are stable across runs.
func (e *Engine) Search(ctx context.Context, q Query) (*Results, error) {
	if err := q.Filters.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = e.defLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	text := strings.TrimSpace(q.Text)
	candidates, err := e.store.SearchCandidates(ctx, q.Filters, matchExpr(text))
	if err != nil {
		return nil, err
	}

	// Browse mode: no ranking signal, candidates already come name-ordered.
	if text == "" {
		return &Results{Items: page(toResults(candidates), offset, limit), Total: len(candidates)}, nil
	}

	lcText := strings.ToLower(text)

	type scored struct {
		catalog.Candidate
		nameSim float64
		devSim  float64
	}

	var eligible []scored
	var maxLex float64
	for _, c := range candidates {
		sc := scored{
			Candidate: c,
			nameSim:   e.sim.Compare(text, c.Name),
		}
		if c.ParentDevice != "" {
			sc.devSim = e.sim.Compare(text, c.ParentDevice)
		}

		matched := c.BM25 != nil ||
			strings.Contains(strings.ToLower(c.Name), lcText) ||
			(c.ParentDevice != "" && strings.Contains(strings.ToLower(c.ParentDevice), lcText)) ||
			sc.nameSim >= e.floor
		if !matched {
			continue
		}

		// fts5 bm25() returns negative values, more negative = better.
		if c.BM25 != nil && -*c.BM25 > maxLex {
			maxLex = -*c.BM25
		}
		eligible = append(eligible, sc)
	}

	results := make([]catalog.SearchResult, 0, len(eligible))
	for _, sc := range eligible {
		lex := 0.0
		if sc.BM25 != nil && maxLex > 0 {
			lex = -*sc.BM25 / maxLex
		}
		results = append(results, catalog.SearchResult{
			ID:           sc.ID,
			Name:         sc.Name,
			ContentType:  sc.ContentType,
			Category:     sc.Category,
			ParentDevice: sc.ParentDevice,
			FilePath:     sc.FilePath,
			PackageName:  sc.PackageName,
			Relevance:    e.lexWeight*lex + e.nameWeight*sc.nameSim + e.devWeight*sc.devSim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		ni, nj := strings.ToLower(results[i].Name), strings.ToLower(results[j].Name)
		if ni != nj {
			return ni < nj
		}
		return results[i].ID < results[j].ID
	})

	return &Results{Items: page(results, offset, limit), Total: len(results)}, nil
}

// Suggest returns autocomplete suggestions for a name prefix, most frequently
// matched first.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]catalog.Suggestion, error) {
	return e.store.Autocomplete(ctx, strings.TrimSpace(prefix), limit)
}

// matchExpr builds the FTS5 match expression for a free-text query: each
// token quoted and OR-joined, so partial field matches still surface and the
// blended score decides their rank.
func matchExpr(text string) string {
	tokens := vector.Tokenize(text)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

func toResults(candidates []catalog.Candidate) []catalog.SearchResult {
	out := make([]catalog.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, catalog.SearchResult{
			ID:           c.ID,
			Name:         c.Name,
			ContentType:  c.ContentType,
			Category:     c.Category,
			ParentDevice: c.ParentDevice,
			FilePath:     c.FilePath,
			PackageName:  c.PackageName,
		})
	}
	return out
}

func page(items []catalog.SearchResult, offset, limit int) []catalog.SearchResult {
	if offset >= len(items) {
		return []catalog.SearchResult{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
