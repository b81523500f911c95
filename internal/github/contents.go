package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// RawContentHost serves repository file bytes directly, without API wrapping.
const RawContentHost = "https://raw.githubusercontent.com"

type createFileRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
}

// CreateFile creates content at path on branch with a deterministic commit
// message. The response body is not inspected beyond the status: the caller
// builds the raw URL from its own inputs because the content-creation
// response shape is not guaranteed stable.
func (c *Client) CreateFile(ctx context.Context, owner, repo, branch, path string, content []byte, authHeader string) error {
	var encoded bytes.Buffer
	encoder := base64.NewEncoder(base64.StdEncoding, &encoded)
	if _, err := encoder.Write(content); err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	payload, err := json.Marshal(createFileRequest{
		Message: "chore: upload image " + path,
		Content: encoded.String(),
		Branch:  branch,
	})
	if err != nil {
		return err
	}

	endpoint := "/repos/" + owner + "/" + repo + "/contents/" + escapePath(path)
	status, body, err := c.do(ctx, http.MethodPut, endpoint, authHeader, payload)
	if err != nil {
		return &Error{Kind: KindUploadTransport, Message: "upload " + path + ": " + err.Error()}
	}
	if status < 200 || status >= 300 {
		return &Error{Kind: KindUploadTransport, StatusCode: status, Message: fmt.Sprintf("upload %s: %s", path, trimBody(body))}
	}
	return nil
}

// RawURL returns the canonical raw-content URL for a path on a branch, with
// every path segment percent-encoded independently.
func RawURL(owner, repo, branch, path string) string {
	return RawContentHost + "/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/" + escapePath(branch) + "/" + escapePath(path)
}
