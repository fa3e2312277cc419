// Package render 调用 PlantUML 服务将图文本渲染为 PNG 与 SVG
package render

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultServer = "https://www.plantuml.com/plantuml"

// PlantUML 使用的 base64 字母表
const plantumlAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var plantumlEncoding = base64.NewEncoding(plantumlAlphabet).WithPadding(base64.NoPadding)

// Image 是一次渲染的结果，SVG 原样保留
type Image struct {
	PNG []byte
	SVG string
}

// Renderer 将图文本渲染为图像
type Renderer interface {
	Render(ctx context.Context, text string) (*Image, error)
}

// Client 是 PlantUML 服务的 HTTP 客户端
type Client struct {
	BaseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultServer
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Render 并发请求 PNG 与 SVG
func (c *Client) Render(ctx context.Context, text string) (*Image, error) {
	encoded, err := Encode(text)
	if err != nil {
		return nil, err
	}

	img := &Image{}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := c.get(gCtx, "png", encoded)
		img.PNG = data
		return err
	})
	g.Go(func() error {
		data, err := c.get(gCtx, "svg", encoded)
		img.SVG = string(data)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("diagram rendered", zap.Int("png_bytes", len(img.PNG)), zap.Int("svg_bytes", len(img.SVG)))
	return img, nil
}

func (c *Client) get(ctx context.Context, format, encoded string) ([]byte, error) {
	url := c.BaseURL + "/" + format + "/" + encoded
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", format, err)
	}
	if resp.StatusCode != http.StatusOK {
		// 语法错误时服务端仍返回错误图片，原因放在响应头中
		if msg := resp.Header.Get("X-PlantUML-Diagram-Error"); msg != "" {
			return nil, fmt.Errorf("PlantUML server returned %d for %s: %s (line %s)",
				resp.StatusCode, format, msg, resp.Header.Get("X-PlantUML-Diagram-Error-Line"))
		}
		return nil, fmt.Errorf("PlantUML server returned %d for %s", resp.StatusCode, format)
	}
	return body, nil
}

// ==========================================
// 文本编码 (deflate + PlantUML base64)
// ==========================================

// Encode 将图文本压缩并编码为 URL 安全的 PlantUML 形式
func Encode(text string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write([]byte(text)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	// 与官方实现一致：按 3 字节分组，不足补 0
	data := buf.Bytes()
	if rem := len(data) % 3; rem != 0 {
		data = append(data, make([]byte, 3-rem)...)
	}
	return plantumlEncoding.EncodeToString(data), nil
}

// Decode 是 Encode 的逆过程
func Decode(encoded string) (string, error) {
	data, err := plantumlEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode PlantUML text: %w", err)
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("inflate PlantUML text: %w", err)
	}
	return string(out), nil
}
