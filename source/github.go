package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultGitHubAPI = "https://api.github.com"

var ErrEmptyContent = errors.New("github: no content blob")

// GitHub 通过 contents API 获取仓库中的文件。
// Repo 可以是 "owner/name" 或数字形式的仓库 ID。
type GitHub struct {
	Repo       string
	Ref        string
	Token      string
	BaseURL    string
	httpClient *http.Client
}

func NewGitHub(repo, ref, token string) *GitHub {
	return &GitHub{
		Repo:    strings.Trim(repo, "/"),
		Ref:     ref,
		Token:   token,
		BaseURL: DefaultGitHubAPI,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient 替换底层 http.Client
func (g *GitHub) WithHTTPClient(client *http.Client) *GitHub {
	g.httpClient = client
	return g
}

func (g *GitHub) Key() string {
	ref := g.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return "github://" + g.Repo + "@" + ref
}

type contentBlob struct {
	Type        string `json:"type"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

// Fetch 返回第一个内容块的文本
func (g *GitHub) Fetch(ctx context.Context, ref FileRef) ([]byte, error) {
	endpoint := g.repoPath() + "/contents/" + escapePath(ref.Path)
	query := url.Values{}
	if g.Ref != "" {
		query.Set("ref", g.Ref)
	}

	body, err := g.get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	blob, err := firstBlob(body)
	if err != nil {
		return nil, fmt.Errorf("decode contents of %s: %w", ref.Path, err)
	}

	if blob.Content == "" && blob.DownloadURL != "" {
		// 超过 1MB 的文件不内联内容，改走 download_url
		return g.download(ctx, blob.DownloadURL)
	}
	if blob.Encoding != "" && blob.Encoding != "base64" {
		return []byte(blob.Content), nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode base64 of %s: %w", ref.Path, err)
	}
	return data, nil
}

// List 列出仓库中全部文件 (git trees API, recursive)
func (g *GitHub) List(ctx context.Context) ([]FileRef, error) {
	ref := g.Ref
	if ref == "" {
		ref = "HEAD"
	}
	body, err := g.get(ctx, g.repoPath()+"/git/trees/"+url.PathEscape(ref), url.Values{"recursive": {"1"}})
	if err != nil {
		return nil, err
	}

	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode GitHub tree: %w", err)
	}
	if tree.Truncated {
		return nil, fmt.Errorf("GitHub tree for %s is truncated", g.Repo)
	}

	var refs []FileRef
	for _, entry := range tree.Tree {
		if entry.Type == "blob" {
			refs = append(refs, NewFileRef(entry.Path))
		}
	}
	return refs, nil
}

func (g *GitHub) repoPath() string {
	if _, err := strconv.ParseInt(g.Repo, 10, 64); err == nil {
		return "/repositories/" + g.Repo
	}
	return "/repos/" + g.Repo
}

func (g *GitHub) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u := strings.TrimRight(g.BaseURL, "/") + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d for %s: %s", resp.StatusCode, endpoint, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (g *GitHub) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s returned %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// firstBlob 兼容对象与数组两种响应
func firstBlob(body []byte) (*contentBlob, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var blobs []contentBlob
		if err := json.Unmarshal(body, &blobs); err != nil {
			return nil, err
		}
		for i := range blobs {
			if blobs[i].Type == "" || blobs[i].Type == "file" {
				return &blobs[i], nil
			}
		}
		return nil, ErrEmptyContent
	}

	var blob contentBlob
	if err := json.Unmarshal(body, &blob); err != nil {
		return nil, err
	}
	if blob.Type != "" && blob.Type != "file" {
		return nil, ErrEmptyContent
	}
	return &blob, nil
}

func escapePath(path string) string {
	parts := strings.Split(strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
