package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// BranchState is the transient result of branch provisioning. Base names the
// branch the ref was cut from (the branch itself when it already existed).
type BranchState struct {
	Created bool
	Base    string
}

type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
	Permissions   *struct {
		Push bool `json:"push"`
	} `json:"permissions"`
}

type branchResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// EnsureReachable verifies the repository is visible and writable with the
// given auth header. 401, 403 and 404 are classified; a reachable repository
// whose metadata explicitly reports no push access classifies as
// insufficient permission. Other failures propagate unchanged.
func (c *Client) EnsureReachable(ctx context.Context, owner, repo, authHeader string) error {
	status, body, err := c.do(ctx, http.MethodGet, "/repos/"+owner+"/"+repo, authHeader, nil)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, StatusCode: status, Message: "bad credentials for " + owner + "/" + repo}
	case http.StatusForbidden:
		// a 403 body that explicitly reports push:false is a permission
		// problem on a visible repository, not a blanket ban
		if noPushAccess(body) {
			return &Error{Kind: KindInsufficientPermission, StatusCode: status, Message: "token has no push access to " + owner + "/" + repo}
		}
		return &Error{Kind: KindForbidden, StatusCode: status, Message: "access to " + owner + "/" + repo + " is forbidden"}
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, StatusCode: status, Message: "repository " + owner + "/" + repo + " not found"}
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("repository check failed (status %d): %s", status, trimBody(body))
	}

	if noPushAccess(body) {
		return &Error{Kind: KindInsufficientPermission, StatusCode: status, Message: "token has no push access to " + owner + "/" + repo}
	}
	return nil
}

// noPushAccess reports whether the repository metadata explicitly carries
// permissions with push set to false.
func noPushAccess(body []byte) bool {
	var meta repoResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return false
	}
	return meta.Permissions != nil && !meta.Permissions.Push
}

// EnsureBranch verifies the branch exists, creating it from the default
// branch head if absent. Creation losing a race to a concurrent creator
// (422) counts as success: branch existence, not authorship, is the goal.
func (c *Client) EnsureBranch(ctx context.Context, owner, repo, branch, authHeader string) (BranchState, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/repos/"+owner+"/"+repo+"/branches/"+escapePath(branch), authHeader, nil)
	if err != nil {
		return BranchState{}, err
	}
	if status >= 200 && status < 300 {
		return BranchState{Created: false, Base: branch}, nil
	}
	if status != http.StatusNotFound {
		return BranchState{}, &Error{Kind: KindBranchLookup, StatusCode: status, Message: fmt.Sprintf("look up branch %s: %s", branch, trimBody(body))}
	}

	base, sha, err := c.defaultBranchHead(ctx, owner, repo, authHeader)
	if err != nil {
		return BranchState{}, err
	}

	payload, err := json.Marshal(createRefRequest{Ref: "refs/heads/" + branch, SHA: sha})
	if err != nil {
		return BranchState{}, err
	}
	status, body, err = c.do(ctx, http.MethodPost, "/repos/"+owner+"/"+repo+"/git/refs", authHeader, payload)
	if err != nil {
		return BranchState{}, &Error{Kind: KindBranchCreation, Message: err.Error()}
	}
	if status == http.StatusUnprocessableEntity {
		// lost the creation race; the branch exists now
		return BranchState{Created: false, Base: base}, nil
	}
	if status < 200 || status >= 300 {
		return BranchState{}, &Error{Kind: KindBranchCreation, StatusCode: status, Message: fmt.Sprintf("create ref refs/heads/%s: %s", branch, trimBody(body))}
	}
	return BranchState{Created: true, Base: base}, nil
}

// defaultBranchHead resolves the repository's default branch name and its
// head commit SHA.
func (c *Client) defaultBranchHead(ctx context.Context, owner, repo, authHeader string) (string, string, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/repos/"+owner+"/"+repo, authHeader, nil)
	if err != nil {
		return "", "", err
	}
	if status < 200 || status >= 300 {
		return "", "", &Error{Kind: KindBranchLookup, StatusCode: status, Message: "resolve default branch: " + trimBody(body)}
	}
	var meta repoResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", "", fmt.Errorf("parse repository metadata: %w", err)
	}
	if meta.DefaultBranch == "" {
		return "", "", &Error{Kind: KindBranchLookup, StatusCode: status, Message: "repository reports no default branch"}
	}

	status, body, err = c.do(ctx, http.MethodGet, "/repos/"+owner+"/"+repo+"/branches/"+escapePath(meta.DefaultBranch), authHeader, nil)
	if err != nil {
		return "", "", err
	}
	if status < 200 || status >= 300 {
		return "", "", &Error{Kind: KindBranchLookup, StatusCode: status, Message: fmt.Sprintf("resolve head of %s: %s", meta.DefaultBranch, trimBody(body))}
	}
	var head branchResponse
	if err := json.Unmarshal(body, &head); err != nil {
		return "", "", fmt.Errorf("parse branch metadata: %w", err)
	}
	if head.Commit.SHA == "" {
		return "", "", &Error{Kind: KindBranchLookup, StatusCode: status, Message: "default branch " + meta.DefaultBranch + " has no head commit"}
	}
	return meta.DefaultBranch, head.Commit.SHA, nil
}
