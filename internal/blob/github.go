package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avishkar-events/registration-engine/internal/config"
)

// GitHub stores blobs as files in a GitHub repository through the
// contents API. Handles are raw.githubusercontent.com URLs.
type GitHub struct {
	client *http.Client
	token  string
	repo   string // owner/name
	branch string
}

// NewGitHub constructs a GitHub blob store from configuration.
func NewGitHub(cfg config.GitHub) *GitHub {
	return &GitHub{
		client: &http.Client{Timeout: 30 * time.Second},
		token:  cfg.Token,
		repo:   cfg.Repo,
		branch: cfg.Branch,
	}
}

func (g *GitHub) Upload(ctx context.Context, folder string, data []byte, ext string) (string, error) {
	if g.token == "" || g.repo == "" {
		return "", fmt.Errorf("github blob store is not configured")
	}

	name := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	path := fmt.Sprintf("assets/%s/%s", folder, name)

	body := map[string]string{
		"message": fmt.Sprintf("Upload %s", name),
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  g.branch,
	}
	var result struct {
		Content struct {
			DownloadURL string `json:"download_url"`
		} `json:"content"`
	}
	if err := g.do(ctx, http.MethodPut, path, body, &result); err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}
	if result.Content.DownloadURL != "" {
		return result.Content.DownloadURL, nil
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", g.repo, g.branch, path), nil
}

func (g *GitHub) Delete(ctx context.Context, handle string) error {
	if g.token == "" || g.repo == "" {
		return fmt.Errorf("github blob store is not configured")
	}

	path, ok := g.pathFromHandle(handle)
	if !ok {
		return fmt.Errorf("handle %q does not belong to this store", handle)
	}

	// The contents API needs the current SHA to delete a file.
	var current struct {
		SHA string `json:"sha"`
	}
	if err := g.do(ctx, http.MethodGet, path, nil, &current); err != nil {
		return fmt.Errorf("look up blob sha: %w", err)
	}

	body := map[string]string{
		"message": fmt.Sprintf("Delete %s", path),
		"sha":     current.SHA,
		"branch":  g.branch,
	}
	if err := g.do(ctx, http.MethodDelete, path, body, nil); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (g *GitHub) pathFromHandle(handle string) (string, bool) {
	prefix := fmt.Sprintf("https://raw.githubusercontent.com/%s/", g.repo)
	rest, found := strings.CutPrefix(handle, prefix)
	if !found {
		return "", false
	}
	// rest is branch/path.
	_, path, found := strings.Cut(rest, "/")
	if !found || path == "" {
		return "", false
	}
	return path, true
}

func (g *GitHub) do(ctx context.Context, method, path string, body any, out any) error {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/contents/%s", g.repo, path)
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "registration-engine")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("github api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}
