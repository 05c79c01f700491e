package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mamastoria/internal/models"
)

var ErrGeneratorDisabled = errors.New("draft generator is not configured")

// DraftGenerator is the external render pipeline: submit a job, poll its state.
type DraftGenerator interface {
	SubmitDraft(ctx context.Context, comic *models.Comic) (*models.DraftJob, error)
	DraftStatus(ctx context.Context, jobID string) (*models.DraftJob, error)
}

type httpDraftGenerator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewDraftGenerator(baseURL, apiKey string, timeout time.Duration) DraftGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpDraftGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type draftJobRequest struct {
	ComicID             int      `json:"comic_id"`
	StoryIdea           string   `json:"story_idea"`
	Summary             string   `json:"summary,omitempty"`
	PageCount           int      `json:"page_count"`
	Genre               []string `json:"genre"`
	Style               string   `json:"style"`
	CharacterKey        string   `json:"character_key,omitempty"`
	SelectedBackgrounds []int64  `json:"selected_backgrounds,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (g *httpDraftGenerator) SubmitDraft(ctx context.Context, comic *models.Comic) (*models.DraftJob, error) {
	if g.baseURL == "" {
		return nil, ErrGeneratorDisabled
	}
	pages := 0
	if comic.PageCount != nil {
		pages = *comic.PageCount
	}
	payload := draftJobRequest{
		ComicID:             comic.ID,
		StoryIdea:           deref(comic.StoryIdea),
		Summary:             deref(comic.Summary),
		PageCount:           pages,
		Genre:               comic.Genre,
		Style:               deref(comic.Style),
		CharacterKey:        deref(comic.SelectedCharacterKey),
		SelectedBackgrounds: comic.SelectedBackgrounds,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return g.do(ctx, http.MethodPost, g.baseURL+"/jobs", body)
}

func (g *httpDraftGenerator) DraftStatus(ctx context.Context, jobID string) (*models.DraftJob, error) {
	if g.baseURL == "" {
		return nil, ErrGeneratorDisabled
	}
	return g.do(ctx, http.MethodGet, g.baseURL+"/jobs/"+url.PathEscape(jobID), nil)
}

func (g *httpDraftGenerator) do(ctx context.Context, method, endpoint string, body []byte) (*models.DraftJob, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generator %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generator: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	var job models.DraftJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("generator: decode: %w", err)
	}
	job.Status = strings.ToUpper(job.Status)
	return &job, nil
}
