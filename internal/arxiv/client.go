// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv queries the arXiv Atom API for paper metadata.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mzelen/statpaper/internal/httputil"
	"github.com/mzelen/statpaper/pkg/types"
)

// Base URLs. Declared as vars so tests can substitute httptest servers.
var (
	APIBase    = "https://export.arxiv.org/api/query"
	PDFBase    = "https://arxiv.org/pdf/"
	maxRetries = 5
)

// Client wraps an HTTP client with the headers and retry behavior the
// arXiv API expects.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

// BuildCategoryQuery constructs a search_query term for one category over a
// submittedDate window (e.g. "cat:cs.LG AND submittedDate:[20210101 TO 20261231]").
func BuildCategoryQuery(category string, from, to time.Time) string {
	return fmt.Sprintf("cat:%s AND submittedDate:[%s TO %s]",
		category, from.Format("20060102"), to.Format("20060102"))
}

// Search runs a paged query sorted by last-updated date, newest first.
// An empty result page signals the end of the listing.
func (c *Client) Search(ctx context.Context, query string, start, pageSize int) ([]types.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(pageSize))
	params.Set("sortBy", "lastUpdatedDate")
	params.Set("sortOrder", "descending")

	return c.fetch(ctx, APIBase+"?"+params.Encode())
}

// FetchByID retrieves metadata for a single arXiv identifier.
func (c *Client) FetchByID(ctx context.Context, id string) (*types.Paper, error) {
	papers, err := c.fetch(ctx, fmt.Sprintf("%s?id_list=%s", APIBase, url.QueryEscape(id)))
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("no entries found for arXiv ID %s", id)
	}
	return &papers[0], nil
}

func (c *Client) fetch(ctx context.Context, apiURL string) ([]types.Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var papers []types.Paper
	for _, entry := range feed.Entries {
		id, version := ParseID(entry.ID)
		if id == "" {
			continue
		}

		p := types.Paper{
			ID:               id,
			Version:          version,
			Title:            strings.Join(strings.Fields(entry.Title), " "),
			Abstract:         strings.TrimSpace(entry.Summary),
			Category:         entry.PrimaryCategory.Term,
			SourceURL:        PDFURL(id),
			ExtractionStatus: types.ExtractionNone,
		}

		for _, a := range entry.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			p.Date = t
		}

		papers = append(papers, p)
	}
	return papers, nil
}

// PDFURL returns the arxiv.org download URL for an identifier.
func PDFURL(id string) string {
	return PDFBase + id
}

// arXiv Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string       `xml:"id"`
	Title           string       `xml:"title"`
	Summary         string       `xml:"summary"`
	Published       string       `xml:"published"`
	Authors         []atomAuthor `xml:"author"`
	PrimaryCategory atomCategory `xml:"primary_category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// ParseID pulls the versionless arXiv ID and version number from the
// entry's <id> URL (e.g. "http://arxiv.org/abs/2301.07041v2" → "2301.07041", 2).
func ParseID(idURL string) (string, int) {
	const prefix = "/abs/"
	id := idURL
	if idx := strings.Index(idURL, prefix); idx >= 0 {
		id = idURL[idx+len(prefix):]
	}

	version := 0
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if v, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			version = v
			id = id[:vIdx]
		}
	}

	if !IsID(id) {
		return "", 0
	}
	return id, version
}

// IsID reports whether s follows the modern arXiv numbering scheme
// (YYMM.NNNNN, four or five digits after the dot).
func IsID(s string) bool {
	dot := strings.IndexByte(s, '.')
	if dot != 4 || len(s)-dot-1 < 4 || len(s)-dot-1 > 5 {
		return false
	}
	for i, r := range s {
		if i == dot {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
