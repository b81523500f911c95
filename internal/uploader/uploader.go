// Package uploader orchestrates image uploads to a GitHub repository branch:
// path derivation, dual-scheme auth negotiation, branch provisioning, the
// content-creation call, bounded retry, and per-batch result aggregation.
package uploader

import (
	"context"
	"log/slog"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/gitpix/gitpix/internal/config"
	"github.com/gitpix/gitpix/internal/github"
	"github.com/gitpix/gitpix/internal/imagepath"
)

// NoticeReasonLimit caps the failure reason carried in the consolidated
// batch notice.
const NoticeReasonLimit = 180

// File is one image to upload, as delivered by a paste batch.
type File struct {
	Name    string
	Mime    string
	Content []byte
}

// BatchResult aggregates one paste batch: Markdown image links for the
// successes (input order) and a single consolidated notice when any file
// exhausted its retries.
type BatchResult struct {
	Links  []string
	Notice string
	Failed int
}

// Service uploads image batches. Files within a batch are processed strictly
// sequentially; one file's full retry cycle completes before the next begins.
type Service struct {
	gh     *config.GitHubConfig
	upload config.UploadConfig
	client *github.Client
	logger *slog.Logger

	// test seams
	timer backoff.Timer
	now   func() time.Time
}

// NewService creates an upload service for the configured repository branch.
func NewService(log *slog.Logger, client *github.Client, cfg config.Config) *Service {
	if log == nil {
		log = slog.Default()
	}
	gh := cfg.GitHub
	return &Service{
		gh:     &gh,
		upload: cfg.Upload,
		client: client,
		logger: log.With(slog.String("service", "uploader")),
		now:    time.Now,
	}
}

// UploadBatch uploads every file to completion (success or retry exhaustion)
// and aggregates the results. The configuration is validated once, before
// any network activity; a validation failure aborts the whole batch and is
// never retried.
func (s *Service) UploadBatch(ctx context.Context, files []File) (BatchResult, error) {
	if err := s.gh.Validate(); err != nil {
		return BatchResult{Failed: len(files), Notice: err.Error()}, err
	}

	log := s.logger.With(slog.String("batch", uuid.NewString()))

	var result BatchResult
	var failedNames []string
	var firstErr error
	for _, file := range files {
		link, attempts, err := s.uploadOne(ctx, file)
		if err != nil {
			log.Warn("upload exhausted",
				slog.String("file", file.Name),
				slog.Int("attempts", attempts),
				slog.Any("error", err),
			)
			failedNames = append(failedNames, file.Name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Info("upload complete",
			slog.String("file", file.Name),
			slog.String("url", link),
			slog.Int("attempts", attempts),
		)
		result.Links = append(result.Links, "!["+file.Name+"]("+link+")")
	}

	result.Failed = len(failedNames)
	if firstErr != nil {
		result.Notice = consolidateNotice(failedNames, firstErr)
	}
	return result, nil
}

// uploadOne derives the storage path once, then retries the full
// {auth-negotiate, reachability, branch-ensure, upload} sequence up to the
// attempt bound. Re-running the read-only checks on retry is intentional
// redundancy; branch creation itself is idempotent.
func (s *Service) uploadOne(ctx context.Context, file File) (string, int, error) {
	path := imagepath.Build(file.Name, file.Mime, s.now()).String()
	headers := github.AuthHeaders(s.gh.Token)

	attempts := 0
	op := func() error {
		attempts++
		return github.TryEach(headers, func(header string) error {
			if err := s.client.EnsureReachable(ctx, s.gh.Owner, s.gh.Repo, header); err != nil {
				return err
			}
			state, err := s.client.EnsureBranch(ctx, s.gh.Owner, s.gh.Repo, s.gh.Branch, header)
			if err != nil {
				return err
			}
			if state.Created {
				s.logger.Info("provisioned branch",
					slog.String("branch", s.gh.Branch),
					slog.String("base", state.Base),
				)
			}
			return s.client.CreateFile(ctx, s.gh.Owner, s.gh.Repo, s.gh.Branch, path, file.Content, header)
		})
	}

	if err := s.retry(ctx, op); err != nil {
		return "", attempts, err
	}
	return github.RawURL(s.gh.Owner, s.gh.Repo, s.gh.Branch, path), attempts, nil
}

func consolidateNotice(names []string, first error) string {
	reason := first.Error()
	if runes := []rune(reason); len(runes) > NoticeReasonLimit {
		reason = string(runes[:NoticeReasonLimit])
	}
	return "failed to upload " + strings.Join(names, ", ") + ": " + reason
}
