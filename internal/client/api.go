package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Author is the author summary embedded in articles and comments.
type Author struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar"`
}

type Article struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Content      string    `json:"content,omitempty"`
	Excerpt      string    `json:"excerpt,omitempty"`
	Author       *Author   `json:"author,omitempty"`
	ViewCount    int64     `json:"view_count"`
	LoveCount    int64     `json:"love_count"`
	CommentCount int64     `json:"comment_count"`
	PublishedAt  time.Time `json:"published_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	ArticleID uuid.UUID `json:"article_id"`
	Content   string    `json:"content"`
	User      *Author   `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeStatus is the caller's like state for an article.
type LikeStatus struct {
	Liked     bool  `json:"liked"`
	LoveCount int64 `json:"love_count"`
}

// DiskEntry is a file or folder on the network disk.
type DiskEntry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
	IsDirectory  bool      `json:"is_directory"`
	DisplayName  string    `json:"display_name,omitempty"`
}

// DiskListing is one folder view.
type DiskListing struct {
	CurrentPath string      `json:"current_path"`
	ParentPath  string      `json:"parent_path"`
	CanWrite    bool        `json:"can_write"`
	CanDelete   bool        `json:"can_delete"`
	Directories []DiskEntry `json:"directories"`
	Files       []DiskEntry `json:"files"`
}

type StorageInfo struct {
	UsedBytes int64 `json:"used_bytes"`
	FileCount int   `json:"file_count"`
}

func (c *Client) call(ctx context.Context, req *Request, out interface{}) (*Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// ListArticles returns one page of articles, optionally filtered by search.
func (c *Client) ListArticles(ctx context.Context, search string, page, pageSize int) ([]Article, *Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if search != "" {
		q.Set("q", search)
	}
	var articles []Article
	resp, err := c.call(ctx, &Request{Method: http.MethodGet, Path: "/articles", Query: q}, &articles)
	if err != nil {
		return nil, nil, err
	}
	return articles, resp.Pagination, nil
}

// GetArticle fetches an article and counts a view.
func (c *Client) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	var a Article
	if _, err := c.call(ctx, &Request{Method: http.MethodGet, Path: "/articles/" + id.String()}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ListComments(ctx context.Context, articleID uuid.UUID, page, pageSize int) ([]Comment, *Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	var comments []Comment
	resp, err := c.call(ctx, &Request{Method: http.MethodGet, Path: "/articles/" + articleID.String() + "/comments", Query: q}, &comments)
	if err != nil {
		return nil, nil, err
	}
	return comments, resp.Pagination, nil
}

// PostComment posts a comment. The server may demand a captcha after
// repeated failures; pass an empty key otherwise.
func (c *Client) PostComment(ctx context.Context, articleID uuid.UUID, content, captchaKey, captchaValue string) (*Comment, error) {
	body := map[string]string{"content": content, "captcha_key": captchaKey, "captcha_value": captchaValue}
	var cm Comment
	if _, err := c.call(ctx, &Request{Method: http.MethodPost, Path: "/articles/" + articleID.String() + "/comments", Body: body}, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

// ToggleLike likes or unlikes an article.
func (c *Client) ToggleLike(ctx context.Context, articleID uuid.UUID) (*LikeStatus, error) {
	var st LikeStatus
	if _, err := c.call(ctx, &Request{Method: http.MethodPost, Path: "/articles/" + articleID.String() + "/like"}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListFiles lists a network-disk folder; "" is the root.
func (c *Client) ListFiles(ctx context.Context, path string) (*DiskListing, error) {
	q := url.Values{}
	if path != "" {
		q.Set("path", path)
	}
	var l DiskListing
	if _, err := c.call(ctx, &Request{Method: http.MethodGet, Path: "/netdisk/files", Query: q}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Upload stores r as name inside dir; an empty dir is the caller's folder.
func (c *Client) Upload(ctx context.Context, dir, name string, r io.Reader) (*DiskEntry, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("path", dir); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out struct {
		File DiskEntry `json:"file"`
	}
	req := &Request{Method: http.MethodPost, Path: "/netdisk/upload", RawBody: buf.Bytes(), ContentType: w.FormDataContentType()}
	if _, err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

// Download returns the content of the file at path.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/netdisk/download/" + strings.TrimLeft(path, "/")})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) Mkdir(ctx context.Context, parent, name string) (*DiskEntry, error) {
	var out struct {
		Directory DiskEntry `json:"directory"`
	}
	body := map[string]string{"path": parent, "name": name}
	if _, err := c.call(ctx, &Request{Method: http.MethodPost, Path: "/netdisk/mkdir", Body: body}, &out); err != nil {
		return nil, err
	}
	return &out.Directory, nil
}

// DeletePath removes a file or folder.
func (c *Client) DeletePath(ctx context.Context, path string) error {
	_, err := c.call(ctx, &Request{Method: http.MethodDelete, Path: "/netdisk/files/" + strings.TrimLeft(path, "/")}, nil)
	return err
}

func (c *Client) StorageInfo(ctx context.Context) (*StorageInfo, error) {
	var info StorageInfo
	if _, err := c.call(ctx, &Request{Method: http.MethodGet, Path: "/netdisk/storage-info"}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
