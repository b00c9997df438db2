package server

import (
	"context"
	"strings"
	"time"

	"github.com/teranos/umi/db"
	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/ratio"
)

// ErrRateLimited is returned when the generation limiter has no token.
var ErrRateLimited = errors.New("generation rate limit exceeded")

// options layers req over the configured defaults.
func (s *Server) options(req GenerateRequest) (prompt.Options, error) {
	opts := s.cfg.Defaults
	opts.Seeds = req.Seeds
	opts.NegativePrompt = req.NegativePrompt

	if req.Seed != nil {
		opts.Seed = *req.Seed
	} else {
		opts.Seed = s.now().UnixNano()
	}
	if req.BatchSize != 0 {
		opts.BatchSize = req.BatchSize
	}
	if req.BatchCount != 0 {
		opts.BatchCount = req.BatchCount
	}
	if req.SameSeedPerBatch != nil {
		opts.SameSeedPerBatch = *req.SameSeedPerBatch
	}
	if req.StaticWildcards != nil {
		opts.StaticWildcards = *req.StaticWildcards
	}
	if req.CollectNegativeKeywords != nil {
		opts.CollectNegativeKeywords = *req.CollectNegativeKeywords
	}
	if req.Ratio != "" {
		preset, err := ratio.ByName(req.Ratio)
		if err != nil {
			return opts, errors.NewInvalidRequestError("unknown ratio %q", req.Ratio)
		}
		opts.Base.Merge(preset.Overrides())
	}
	return opts, nil
}

// generate runs one request through the limiter, the generator and,
// when asked, the history store.
func (s *Server) generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if strings.TrimSpace(req.Template) == "" {
		return nil, errors.NewInvalidRequestError("template is required")
	}
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}
	opts, err := s.options(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	batch, err := s.generator.Generate(ctx, req.Template, opts)
	if err != nil {
		return nil, err
	}
	resp := &GenerateResponse{Batch: batch}

	if req.Save && s.history != nil {
		id, err := s.history.SaveBatch(ctx, batch)
		switch {
		case db.IsDatabaseClosed(err):
			s.logger.Debugw("History closed, batch not saved", logger.FieldError, err)
		case err != nil:
			// the prompts are still good; report them without an ID
			s.logger.Errorw("Failed to save batch", logger.FieldError, err)
		default:
			resp.BatchID = id
		}
	}

	s.logger.Debugw("Generate request served",
		"images", len(batch.Images),
		logger.FieldSeed, opts.Seed,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return resp, nil
}
