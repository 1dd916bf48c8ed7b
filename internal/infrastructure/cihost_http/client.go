package cihost_http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mirrorship/mirrorship/internal/domain"
)

// Client talks to the upstream CI host's v4 API: pipeline status for a
// ref, and raw artifact download from a named job.
type Client struct {
	baseUrl   string
	token     string
	projectID int64
	hc        *http.Client
}

func New(baseUrl, token string, projectID int64, timeout time.Duration) *Client {
	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseUrl:   trimSlash(baseUrl),
		token:     token,
		projectID: projectID,
		hc:        &http.Client{Transport: tr, Timeout: timeout},
	}
}

type pipelineDTO struct {
	ID     int64  `json:"id"`
	Ref    string `json:"ref"`
	Status string `json:"status"`
	WebURL string `json:"web_url"`
}

func (c *Client) LatestPipeline(ctx context.Context, ref string) (domain.PipelineRun, error) {
	var out domain.PipelineRun

	op := func() error {
		listURL := fmt.Sprintf("%s/api/v4/projects/%d/pipelines?ref=%s&per_page=1",
			c.baseUrl, c.projectID, url.QueryEscape(ref))

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
		req.Header.Set("PRIVATE-TOKEN", c.token)

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if err := checkStatus(ctx, resp); err != nil {
			return err
		}

		var list []pipelineDTO
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return err
		}

		if len(list) == 0 {
			out = domain.PipelineRun{Ref: ref, Status: domain.StatusOther}
			return nil
		}

		p := list[0]
		out = domain.PipelineRun{
			ID:     p.ID,
			Ref:    p.Ref,
			Status: mapStatus(p.Status),
			WebURL: p.WebURL,
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(newPolicy(), ctx)); err != nil {
		return domain.PipelineRun{}, err
	}
	return out, nil
}

// DownloadArtifact streams one file from the latest successful run of
// job on ref into dest.
func (c *Client) DownloadArtifact(ctx context.Context, ref, job, path, dest string) error {
	op := func() error {
		rawURL := fmt.Sprintf("%s/api/v4/projects/%d/jobs/artifacts/%s/raw/%s?job=%s",
			c.baseUrl, c.projectID, url.PathEscape(ref), path, url.QueryEscape(job))

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		req.Header.Set("PRIVATE-TOKEN", c.token)

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if err := checkStatus(ctx, resp); err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return backoff.Permanent(err)
		}

		f, err := os.Create(dest)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer func() { _ = f.Close() }()

		if _, err := io.Copy(f, resp.Body); err != nil {
			return err
		}
		return f.Sync()
	}

	return backoff.Retry(op, backoff.WithContext(newPolicy(), ctx))
}

func checkStatus(ctx context.Context, resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if sec, _ := strconv.Atoi(ra); sec > 0 {
				select {
				case <-time.After(time.Duration(sec) * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
				return fmt.Errorf("retry after due to 429")
			}
		}
		return fmt.Errorf("ci host 429")
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("ci host %s", resp.Status)
	}

	if resp.StatusCode >= 300 {
		return backoff.Permanent(fmt.Errorf("ci host %s", resp.Status))
	}

	return nil
}

func newPolicy() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 5 * time.Second
	return bo
}

func mapStatus(s string) domain.PipelineStatus {
	switch s {
	case "success":
		return domain.StatusSuccess
	case "failed":
		return domain.StatusFailed
	case "running":
		return domain.StatusRunning
	case "canceled":
		return domain.StatusCancelled
	default:
		return domain.StatusOther
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
