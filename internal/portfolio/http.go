package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pkt.systems/termfolio/schema"
)

// DefaultHTTPTimeout bounds one remote fetch.
const DefaultHTTPTimeout = 10 * time.Second

const maxBodyBytes = 4 << 20

// HTTPSource fetches JSON records from a content API: GET {base}/profile,
// /skills, /projects, /experience and /education.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource returns a source rooted at baseURL. A nil client gets a default
// client with DefaultHTTPTimeout.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("content url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("content url %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPSource{base: u, client: client}, nil
}

func (s *HTTPSource) Profile(ctx context.Context) (schema.Profile, error) {
	var out schema.Profile
	err := s.get(ctx, "profile", &out)
	return out, err
}

func (s *HTTPSource) Skills(ctx context.Context) ([]schema.Skill, error) {
	var out []schema.Skill
	if err := s.get(ctx, "skills", &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (s *HTTPSource) Projects(ctx context.Context) ([]schema.Project, error) {
	var out []schema.Project
	if err := s.get(ctx, "projects", &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (s *HTTPSource) Experiences(ctx context.Context) ([]schema.Experience, error) {
	var out []schema.Experience
	if err := s.get(ctx, "experience", &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (s *HTTPSource) Education(ctx context.Context) ([]schema.Education, error) {
	var out []schema.Education
	if err := s.get(ctx, "education", &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (s *HTTPSource) get(ctx context.Context, resource string, out any) error {
	target := s.base.JoinPath(resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("fetch %s: status %d: %w", resource, resp.StatusCode, schema.ErrContentUnavailable)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", resource, err)
	}
	return nil
}
