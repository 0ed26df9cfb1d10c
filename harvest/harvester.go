// Package harvest orchestrates one end-to-end collection pass over the
// caller's subscriptions: load checkpoint, walk the subscription list,
// fetch recent videos and statistics for channels not yet processed this
// cycle, apply the cycle-reset rule, persist the checkpoint.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ytharvest/checkpoint"
	"ytharvest/storage"
	"ytharvest/youtube"
)

// defaultWindowDays is the trailing publication window for video search.
const defaultWindowDays = 365

// Harvester drives one collection pass. All collaborators are injected;
// tests substitute fakes for every one of them.
type Harvester struct {
	api         youtube.API
	videos      storage.VideoWriter
	checkpoints checkpoint.Store
	pacer       Pacer
	window      time.Duration
	now         func() time.Time
}

// New creates a harvester. A nil pacer disables pacing; a nonpositive
// windowDays falls back to the default 365.
func New(api youtube.API, videos storage.VideoWriter, checkpoints checkpoint.Store, pacer Pacer, windowDays int) *Harvester {
	if pacer == nil {
		pacer = NopPacer{}
	}
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	return &Harvester{
		api:         api,
		videos:      videos,
		checkpoints: checkpoints,
		pacer:       pacer,
		window:      time.Duration(windowDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

// RunResult summarizes one pass.
type RunResult struct {
	// Subscriptions is the number of subscription entries seen during the walk.
	Subscriptions int
	// ChannelsProcessed is the number of channels processed this run.
	ChannelsProcessed int
	// VideosStored is the number of rows written this run.
	VideosStored int
	// CheckpointSize is the set size before the cycle-reset rule was applied.
	CheckpointSize int
	// CycleComplete reports whether the checkpoint reached parity with the
	// subscription count and was reset.
	CycleComplete bool
}

// Run performs one pass. The subscription list is walked exactly once,
// counting and processing in the same traversal. A transport error aborts
// remaining processing and leaves the checkpoint unpersisted; rows already
// written stay in storage. Checkpoint and database errors propagate.
func (h *Harvester) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()

	processed, err := h.checkpoints.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	log.Printf("harvest: run %s starting, %d channels checkpointed", runID, processed.Len())

	res := &RunResult{}
	err = youtube.Each(ctx, h.api.Subscriptions, func(sub youtube.Subscription) error {
		res.Subscriptions++
		if processed.Has(sub.ChannelID) {
			return nil
		}
		stored, err := h.processChannel(ctx, sub)
		if err != nil {
			return err
		}
		res.VideosStored += stored
		res.ChannelsProcessed++
		processed.Add(sub.ChannelID)
		return nil
	})
	if err != nil {
		logAbort(runID, err)
		return nil, err
	}
	res.CheckpointSize = processed.Len()

	// The completion check compares against the count this walk observed,
	// so a subscribe or unsubscribe racing the walk can shift the reset by
	// one run. Stale entries from unsubscribed channels are only ever
	// removed by this wholesale reset.
	if processed.Len() >= res.Subscriptions {
		processed.Clear()
		res.CycleComplete = true
	}

	if err := h.checkpoints.Save(ctx, processed); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}

	log.Printf("harvest: run %s complete: %d subscriptions, %d channels processed, %d videos stored",
		runID, res.Subscriptions, res.ChannelsProcessed, res.VideosStored)
	return res, nil
}

// processChannel pages through the channel's videos published inside the
// trailing window and stores statistics for each. It returns the number of
// rows written.
func (h *Harvester) processChannel(ctx context.Context, sub youtube.Subscription) (int, error) {
	publishedAfter := h.now().Add(-h.window)
	stored := 0
	firstPage := true

	search := func(ctx context.Context, pageToken string) (youtube.Page[youtube.VideoItem], error) {
		return h.api.SearchVideos(ctx, sub.ChannelID, publishedAfter, pageToken)
	}

	err := youtube.EachPage(ctx, search, func(items []youtube.VideoItem) error {
		if !firstPage {
			if err := h.pacer.Page(ctx); err != nil {
				return err
			}
		}
		firstPage = false

		for _, item := range items {
			if err := h.pacer.Video(ctx); err != nil {
				return err
			}
			ok, err := h.processVideo(ctx, sub.ChannelTitle, item)
			if err != nil {
				return err
			}
			if ok {
				stored++
			}
		}
		return nil
	})
	if err != nil {
		return stored, err
	}

	log.Printf("harvest: channel %q: %d videos stored", sub.ChannelTitle, stored)
	return stored, nil
}

// processVideo fetches statistics for one video and appends a record. It
// reports whether a row was written: a video whose statistics lookup comes
// back empty is skipped without error, though the log line still fires, as
// it always has.
func (h *Harvester) processVideo(ctx context.Context, channelTitle string, item youtube.VideoItem) (bool, error) {
	stats, err := h.api.VideoStatistics(ctx, item.VideoID)

	wrote := false
	switch {
	case errors.Is(err, youtube.ErrNoStatistics):
		// Skip the row, fall through to the log.
	case err != nil:
		return false, err
	default:
		rec := storage.VideoRecord{
			ChannelTitle: channelTitle,
			VideoTitle:   item.Title,
			Views:        stats.Views,
			Likes:        stats.Likes,
			CommentCount: stats.CommentCount,
		}
		if err := h.videos.InsertVideo(ctx, rec); err != nil {
			return false, err
		}
		wrote = true
	}

	log.Printf("harvest: video %q saved", item.Title)
	return wrote, nil
}

// logAbort logs a run-ending error, with HTTP status and payload when the
// failure came from the API transport.
func logAbort(runID string, err error) {
	var apiErr *youtube.APIError
	if errors.As(err, &apiErr) {
		if code, body := apiErr.Status(); code != 0 {
			log.Printf("harvest: run %s aborted: HTTP %d from %s: %s", runID, code, apiErr.Op, body)
			return
		}
	}
	log.Printf("harvest: run %s aborted: %v", runID, err)
}
