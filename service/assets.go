package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"reelforge-server/config"

	"github.com/google/uuid"
)

const (
	ProviderPexels        = "pexels"
	ProviderCoverr        = "coverr"
	ProviderSecureStorage = "secure-storage"
)

// AssetStore persists a resolved asset into durable storage and returns its
// new URL. Implemented by the MinIO layer; nil disables persistence.
type AssetStore interface {
	PersistFromURL(ctx context.Context, sourceURL, objectName string) (string, error)
}

// Resolver turns visual queries into concrete asset URLs. It never fails
// outward: the primary provider degrades to a fixed fallback URL, and a failed
// persistence step degrades to the original source URL.
type Resolver struct {
	Endpoint     string
	APIKey       string
	FallbackURL  string
	TargetWidth  int
	TargetHeight int
	HTTPClient   *http.Client
	Store        AssetStore
}

func NewResolver(cfg *config.Config, store AssetStore) *Resolver {
	return &Resolver{
		Endpoint:     cfg.Providers.Pexels.Endpoint,
		APIKey:       cfg.Providers.Pexels.APIKey,
		FallbackURL:  cfg.Providers.FallbackAssetURL,
		TargetWidth:  cfg.Render.Width,
		TargetHeight: cfg.Render.Height,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Store:        store,
	}
}

type pexelsResponse struct {
	Videos []struct {
		Width      int `json:"width"`
		Height     int `json:"height"`
		VideoFiles []struct {
			Link   string `json:"link"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Resolve runs the fallback chain for one query:
//  1. primary provider, portrait, closest to the target resolution
//  2. the fixed fallback URL when the primary yields nothing or errors
//  3. optional re-upload into durable storage, keeping the source URL when
//     that step itself fails
func (r *Resolver) Resolve(ctx context.Context, query string) Asset {
	asset, err := r.searchPrimary(ctx, query)
	if err != nil {
		log.Printf("[assets] primary failed for %q: %v, using fallback URL", query, err)
		asset = Asset{
			URL:      r.FallbackURL,
			Provider: ProviderCoverr,
			Width:    r.TargetWidth,
			Height:   r.TargetHeight,
		}
	} else {
		log.Printf("[assets] resolved %q via %s (%dx%d)", query, asset.Provider, asset.Width, asset.Height)
	}

	if r.Store != nil {
		objectName := fmt.Sprintf("assets/%s.mp4", uuid.NewString())
		storedURL, err := r.Store.PersistFromURL(ctx, asset.URL, objectName)
		if err != nil {
			log.Printf("[assets] persist failed for %q: %v, keeping source URL", query, err)
		} else {
			asset.URL = storedURL
			asset.Provider = ProviderSecureStorage
			asset.AssetID = objectName
		}
	}
	return asset
}

// ResolveAll fans the per-query lookups out concurrently and joins the
// results. Entries that resolve to an empty URL are omitted, so the returned
// list may be shorter than the query list.
func (r *Resolver) ResolveAll(ctx context.Context, queries []string) []Asset {
	results := make([]Asset, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			results[i] = r.Resolve(ctx, q)
		}(i, q)
	}
	wg.Wait()

	assets := make([]Asset, 0, len(results))
	for _, a := range results {
		if a.URL == "" {
			continue
		}
		assets = append(assets, a)
	}
	return assets
}

func (r *Resolver) searchPrimary(ctx context.Context, query string) (Asset, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", "portrait")
	params.Set("per_page", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Authorization", r.APIKey)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var data pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Asset{}, fmt.Errorf("decode response: %w", err)
	}
	if len(data.Videos) == 0 {
		return Asset{}, fmt.Errorf("zero results")
	}

	best := r.pickBestFile(data)
	if best.URL == "" {
		return Asset{}, fmt.Errorf("no usable video files")
	}
	best.Provider = ProviderPexels
	return best, nil
}

// pickBestFile prefers the file whose dimensions are closest to the target
// resolution; when nothing comes close it falls back to the largest file.
func (r *Resolver) pickBestFile(data pexelsResponse) Asset {
	var best Asset
	bestScore := -1
	bestArea := -1
	for _, v := range data.Videos {
		for _, f := range v.VideoFiles {
			if f.Link == "" {
				continue
			}
			area := f.Width * f.Height
			score := abs(f.Width-r.TargetWidth) + abs(f.Height-r.TargetHeight)
			better := false
			switch {
			case bestScore < 0:
				better = true
			case score < bestScore:
				better = true
			case score == bestScore && area > bestArea:
				better = true
			}
			if better {
				best = Asset{URL: f.Link, Width: f.Width, Height: f.Height}
				bestScore = score
				bestArea = area
			}
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
