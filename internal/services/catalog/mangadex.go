// Package catalog provides manga search, listing, chapter feeds and page lists resolved
// against interchangeable upstream catalog endpoints.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"norelock.dev/mediagate/backend/internal/utils"
)

// Default MangaDex endpoints, tried in this order.
var DefaultBaseURLs = []string{
	"https://api.mangadex.org",
	"https://api.mangadex.dev",
}

// popularFetchSize is how many popular records are fetched before sampling down.
const popularFetchSize = 50

// popularContentRatings is sent with the popular listing.
var popularContentRatings = []string{"safe", "suggestive", "erotica", "pornographic"}

// LocalizedValue is one language/text pair of a localized string.
type LocalizedValue struct {
	Lang  string
	Value string
}

// LocalizedString is a MangaDex localized string map, decoded in document order so that
// "first available language" is well defined.
type LocalizedString []LocalizedValue

// UnmarshalJSON decodes {"en": "...", "ja": "..."} preserving key order. MangaDex encodes an
// empty map as [], which decodes to an empty LocalizedString.
func (l *LocalizedString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("localized string: expected object, got %v", tok)
	}

	values := LocalizedString{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("localized string: unexpected key %v", keyTok)
		}
		var value *string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("localized string %q: %w", key, err)
		}
		if value != nil {
			values = append(values, LocalizedValue{Lang: key, Value: *value})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = values
	return nil
}

// Get returns the value for lang, or "" if absent.
func (l LocalizedString) Get(lang string) string {
	value, _ := l.Lookup(lang)
	return value
}

// Lookup returns the value for lang and whether the key is present at all.
func (l LocalizedString) Lookup(lang string) (string, bool) {
	for _, v := range l {
		if v.Lang == lang {
			return v.Value, true
		}
	}
	return "", false
}

// FirstNonEmpty returns the first non-blank value in document order.
func (l LocalizedString) FirstNonEmpty() string {
	for _, v := range l {
		if strings.TrimSpace(v.Value) != "" {
			return v.Value
		}
	}
	return ""
}

// Relationship is an entity linked to a manga. Only cover_art carries a file name.
type Relationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes *struct {
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

// TagRecord is a manga tag.
type TagRecord struct {
	ID         string `json:"id"`
	Attributes struct {
		Name LocalizedString `json:"name"`
	} `json:"attributes"`
}

// MangaAttributes are the attributes of a MangaDex manga entity.
type MangaAttributes struct {
	Title       LocalizedString `json:"title"`
	Description LocalizedString `json:"description"`
	Status      *string         `json:"status"`
	Year        *int            `json:"year"`
	Tags        []TagRecord     `json:"tags"`
}

// MangaRecord is one raw manga entity as returned by MangaDex.
type MangaRecord struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Attributes    MangaAttributes `json:"attributes"`
	Relationships []Relationship  `json:"relationships"`
}

// ChapterRecord is one raw chapter entity from a manga feed.
type ChapterRecord struct {
	ID         string `json:"id"`
	Attributes struct {
		Chapter            *string `json:"chapter"`
		Title              *string `json:"title"`
		TranslatedLanguage string  `json:"translatedLanguage"`
	} `json:"attributes"`
}

// AtHomeRecord is a page-delivery session for one chapter.
type AtHomeRecord struct {
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash string   `json:"hash"`
		Data []string `json:"data"`
	} `json:"chapter"`
}

type mangaListResponse struct {
	Result string        `json:"result"`
	Data   []MangaRecord `json:"data"`
}

type chapterListResponse struct {
	Result string          `json:"result"`
	Data   []ChapterRecord `json:"data"`
}

// MangaDexProvider implements the Provider interface for one MangaDex API endpoint.
type MangaDexProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *utils.Logger
}

// MangaDexOption configures a MangaDexProvider.
type MangaDexOption func(*MangaDexProvider)

// WithHTTPClient sets the HTTP client used for upstream calls.
func WithHTTPClient(client *http.Client) MangaDexOption {
	return func(p *MangaDexProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithRequestsPerSecond paces outbound calls. Zero or negative disables pacing.
func WithRequestsPerSecond(rps float64) MangaDexOption {
	return func(p *MangaDexProvider) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			p.limiter = nil
		}
	}
}

// WithUserAgent sets the User-Agent sent upstream.
func WithUserAgent(ua string) MangaDexOption {
	return func(p *MangaDexProvider) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// NewMangaDexProvider creates a provider bound to baseURL.
func NewMangaDexProvider(baseURL string, logger *utils.Logger, options ...MangaDexOption) *MangaDexProvider {
	if logger == nil {
		logger = utils.GetLogger()
	}
	p := &MangaDexProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  "mediagate/1.0",
		logger:     logger.Named("mangadex").With("base_url", baseURL),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Name returns the base URL the provider is bound to.
func (p *MangaDexProvider) Name() string {
	return p.baseURL
}

// SearchManga searches manga by title.
func (p *MangaDexProvider) SearchManga(ctx context.Context, title string, limit int) ([]MangaRecord, error) {
	q := url.Values{}
	q.Set("title", title)
	q.Set("limit", strconv.Itoa(limit))
	q.Add("includes[]", "cover_art")

	var res mangaListResponse
	if err := p.get(ctx, "/manga", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// PopularManga lists the most followed manga across all content ratings, one fixed-size page.
func (p *MangaDexProvider) PopularManga(ctx context.Context) ([]MangaRecord, error) {
	q := url.Values{}
	q.Set("order[followedCount]", "desc")
	q.Set("limit", strconv.Itoa(popularFetchSize))
	q.Add("includes[]", "cover_art")
	for _, rating := range popularContentRatings {
		q.Add("contentRating[]", rating)
	}

	var res mangaListResponse
	if err := p.get(ctx, "/manga", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ChapterFeed lists English chapters of mangaID in ascending chapter order.
func (p *MangaDexProvider) ChapterFeed(ctx context.Context, mangaID string, limit int) ([]ChapterRecord, error) {
	q := url.Values{}
	q.Add("translatedLanguage[]", "en")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order[chapter]", "asc")

	var res chapterListResponse
	if err := p.get(ctx, "/manga/"+url.PathEscape(mangaID)+"/feed", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// AtHomeServer returns the page-delivery session for chapterID.
func (p *MangaDexProvider) AtHomeServer(ctx context.Context, chapterID string) (*AtHomeRecord, error) {
	var res AtHomeRecord
	if err := p.get(ctx, "/at-home/server/"+url.PathEscape(chapterID), nil, &res); err != nil {
		return nil, err
	}
	if res.BaseURL == "" || res.Chapter.Hash == "" {
		return nil, errors.New("mangadex: at-home response missing baseUrl or chapter hash")
	}
	return &res, nil
}

// get performs one GET and decodes the JSON body into target. The body is fully consumed
// before returning.
func (p *MangaDexProvider) get(ctx context.Context, path string, query url.Values, target any) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("mangadex: rate limit wait: %w", err)
		}
	}

	u := p.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("mangadex: build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mangadex: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("mangadex: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mangadex: %d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), u)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("mangadex: decode: %w", err)
	}

	p.logger.Debug("Upstream call succeeded", "path", path, "bytes", len(body))
	return nil
}
