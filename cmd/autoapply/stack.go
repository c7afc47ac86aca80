package main

import (
	"fmt"

	"github.com/yashsmehta/auto-apply/config"
	"github.com/yashsmehta/auto-apply/internal/archive"
	"github.com/yashsmehta/auto-apply/internal/cache"
	"github.com/yashsmehta/auto-apply/internal/extract"
	"github.com/yashsmehta/auto-apply/internal/fetch"
	"github.com/yashsmehta/auto-apply/internal/pipeline"
	"github.com/yashsmehta/auto-apply/provider"
)

// stack bundles the pipeline pieces a CLI run needs.
type stack struct {
	processor *pipeline.Processor
	extract   *extract.Service
	archive   *archive.Archive
}

// buildStack wires provider, fetcher, cache, extraction and archive the same
// way the server does. noCache forces fresh fetches and model calls even when
// caching is enabled in config.
func buildStack(cfg *config.Config, noCache bool) (*stack, error) {
	prov, err := provider.New(provider.Client(cfg.LLM.Provider), provider.Settings{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}
	fetcher, err := fetch.New(fetch.Mode(cfg.Fetch.Mode), fetch.Config{
		Timeout:    cfg.Fetch.Timeout,
		RetryCount: cfg.Fetch.RetryCount,
		UserAgent:  cfg.Fetch.UserAgent,
	})
	if err != nil {
		return nil, err
	}
	var respCache *cache.Cache
	if cfg.Cache.Enabled && !noCache {
		respCache = cache.New(cfg.Cache.TTL)
		fetcher = fetch.NewCached(fetcher, respCache)
	}
	svc := extract.NewService(prov, respCache, cfg.LLM.Timeout, nil)
	arch, err := archive.New(cfg.Storage.File.OutputDir, nil)
	if err != nil {
		return nil, err
	}
	return &stack{
		processor: pipeline.New(fetcher, svc, nil),
		extract:   svc,
		archive:   arch,
	}, nil
}

// printStats reports model traffic after a run. Silent when nothing was
// called, e.g. a fetch failure on the first page.
func printStats(st extract.Stats) {
	if st.TotalCalls == 0 {
		return
	}
	fmt.Printf("Model calls: %d (%d cached, %d failed), avg %dms\n",
		st.TotalCalls, st.CacheHits, st.FailedCalls, st.AverageTimeMS)
}
