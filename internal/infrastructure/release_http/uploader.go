package release_http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mirrorship/mirrorship/internal/domain"
)

// Uploader publishes a release on the code host: each package file is
// uploaded first, then the release is created for the tag with the
// changelog as description and the uploads attached as asset links.
type Uploader struct {
	baseUrl   string
	token     string
	projectID int64
	hc        *http.Client
}

func New(baseUrl, token string, projectID int64, timeout time.Duration) *Uploader {
	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Uploader{
		baseUrl:   trimSlash(baseUrl),
		token:     token,
		projectID: projectID,
		hc:        &http.Client{Transport: tr, Timeout: timeout},
	}
}

type assetLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type releaseReq struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Assets      struct {
		Links []assetLink `json:"links"`
	} `json:"assets"`
}

func (u *Uploader) Publish(ctx context.Context, rel domain.Release) error {
	links := make([]assetLink, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		url, err := u.uploadFile(ctx, a)
		if err != nil {
			return fmt.Errorf("upload %s: %w", a.Name, err)
		}
		links = append(links, assetLink{Name: a.Name, URL: url})
	}

	body := releaseReq{TagName: rel.Tag, Name: rel.Tag, Description: rel.Description}
	body.Assets.Links = links

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	op := func() error {
		relURL := fmt.Sprintf("%s/api/v4/projects/%d/releases", u.baseUrl, u.projectID)
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, relURL, bytes.NewReader(payload))
		req.Header.Set("PRIVATE-TOKEN", u.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := u.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		return checkStatus(ctx, resp)
	}

	return backoff.Retry(op, backoff.WithContext(newPolicy(), ctx))
}

func (u *Uploader) uploadFile(ctx context.Context, a domain.Asset) (string, error) {
	file, err := os.ReadFile(a.Path)
	if err != nil {
		return "", err
	}

	var uploaded struct {
		URL      string `json:"url"`
		FullPath string `json:"full_path"`
	}

	op := func() error {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", a.Name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := part.Write(file); err != nil {
			return backoff.Permanent(err)
		}
		if err := mw.Close(); err != nil {
			return backoff.Permanent(err)
		}

		upURL := fmt.Sprintf("%s/api/v4/projects/%d/uploads", u.baseUrl, u.projectID)
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, upURL, &buf)
		req.Header.Set("PRIVATE-TOKEN", u.token)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		resp, err := u.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if err := checkStatus(ctx, resp); err != nil {
			return err
		}
		return json.NewDecoder(resp.Body).Decode(&uploaded)
	}

	if err := backoff.Retry(op, backoff.WithContext(newPolicy(), ctx)); err != nil {
		return "", err
	}

	if uploaded.FullPath != "" {
		return u.baseUrl + uploaded.FullPath, nil
	}
	return u.baseUrl + uploaded.URL, nil
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
		return fmt.Errorf("code host 429")
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("code host %s", resp.Status)
	}

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return backoff.Permanent(fmt.Errorf("code host %s: %s", resp.Status, body))
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

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
