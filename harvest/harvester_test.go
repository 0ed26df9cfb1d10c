package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"ytharvest/checkpoint"
	"ytharvest/storage"
	"ytharvest/youtube"
)

// fakeAPI implements youtube.API over in-memory fixtures.
type fakeAPI struct {
	subPages []youtube.Page[youtube.Subscription]
	// subErrAt fails the subscription page fetch with that index; -1 never fails.
	subErrAt int

	videoPages map[string][][]youtube.VideoItem // channel ID -> pages
	stats      map[string]youtube.VideoStats
	noStats    map[string]bool
	statErr    map[string]error

	searched       []string // channel IDs whose video search was started
	publishedAfter time.Time
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		subErrAt:   -1,
		videoPages: make(map[string][][]youtube.VideoItem),
		stats:      make(map[string]youtube.VideoStats),
		noStats:    make(map[string]bool),
		statErr:    make(map[string]error),
	}
}

func pageIndex(token string) int {
	if token == "" {
		return 0
	}
	var idx int
	fmt.Sscanf(token, "t-%d", &idx)
	return idx
}

func nextToken(idx, total int) string {
	if idx+1 >= total {
		return ""
	}
	return fmt.Sprintf("t-%d", idx+1)
}

func (f *fakeAPI) Subscriptions(ctx context.Context, pageToken string) (youtube.Page[youtube.Subscription], error) {
	idx := pageIndex(pageToken)
	if idx == f.subErrAt {
		return youtube.Page[youtube.Subscription]{}, &youtube.APIError{
			Op:  "subscriptions.list",
			Err: &googleapi.Error{Code: 403, Body: `{"error":"quotaExceeded"}`},
		}
	}
	page := f.subPages[idx]
	page.NextToken = nextToken(idx, len(f.subPages))
	return page, nil
}

func (f *fakeAPI) SearchVideos(ctx context.Context, channelID string, publishedAfter time.Time, pageToken string) (youtube.Page[youtube.VideoItem], error) {
	if pageToken == "" {
		f.searched = append(f.searched, channelID)
		f.publishedAfter = publishedAfter
	}
	pages := f.videoPages[channelID]
	if len(pages) == 0 {
		return youtube.Page[youtube.VideoItem]{}, nil
	}
	idx := pageIndex(pageToken)
	return youtube.Page[youtube.VideoItem]{
		Items:     pages[idx],
		NextToken: nextToken(idx, len(pages)),
	}, nil
}

func (f *fakeAPI) VideoStatistics(ctx context.Context, videoID string) (youtube.VideoStats, error) {
	if err := f.statErr[videoID]; err != nil {
		return youtube.VideoStats{}, err
	}
	if f.noStats[videoID] {
		return youtube.VideoStats{}, youtube.ErrNoStatistics
	}
	return f.stats[videoID], nil
}

// memWriter implements storage.VideoWriter in memory.
type memWriter struct {
	records []storage.VideoRecord
}

func (m *memWriter) InsertVideo(ctx context.Context, rec storage.VideoRecord) error {
	m.records = append(m.records, rec)
	return nil
}

// memCheckpoints implements checkpoint.Store, recording what was saved.
type memCheckpoints struct {
	initial   checkpoint.Set
	saved     checkpoint.Set
	saveCalls int
}

func (m *memCheckpoints) Load(ctx context.Context) (checkpoint.Set, error) {
	if m.initial == nil {
		return checkpoint.Set{}, nil
	}
	return m.initial, nil
}

func (m *memCheckpoints) Save(ctx context.Context, set checkpoint.Set) error {
	m.saveCalls++
	m.saved = checkpoint.NewSet(set.IDs()...)
	return nil
}

func sub(id, title string) youtube.Subscription {
	return youtube.Subscription{ChannelID: id, ChannelTitle: title}
}

func TestRunFreshCycleStoresAndResets(t *testing.T) {
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha"), sub("UC-b", "Beta")}},
	}
	api.videoPages["UC-a"] = [][]youtube.VideoItem{{{VideoID: "v1", Title: "Video One"}}}
	api.videoPages["UC-b"] = [][]youtube.VideoItem{{{VideoID: "v2", Title: "Video Two"}}}
	api.stats["v1"] = youtube.VideoStats{Views: 100, Likes: 5, CommentCount: 2}
	api.stats["v2"] = youtube.VideoStats{Views: 42}

	writer := &memWriter{}
	checkpoints := &memCheckpoints{}
	h := New(api, writer, checkpoints, nil, 0)

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Subscriptions != 2 || res.ChannelsProcessed != 2 || res.VideosStored != 2 {
		t.Errorf("result = %+v, want 2 subscriptions, 2 processed, 2 stored", res)
	}
	if res.CheckpointSize != 2 {
		t.Errorf("CheckpointSize = %d, want 2 before reset", res.CheckpointSize)
	}
	if !res.CycleComplete {
		t.Error("CycleComplete = false, want true when all channels were processed")
	}

	if len(writer.records) != 2 {
		t.Fatalf("stored %d rows, want 2", len(writer.records))
	}
	first := writer.records[0]
	if first.ChannelTitle != "Alpha" || first.VideoTitle != "Video One" ||
		first.Views != 100 || first.Likes != 5 || first.CommentCount != 2 {
		t.Errorf("row 0 = %+v", first)
	}

	if checkpoints.saveCalls != 1 {
		t.Fatalf("Save called %d times, want 1", checkpoints.saveCalls)
	}
	if checkpoints.saved.Len() != 0 {
		t.Errorf("persisted checkpoint has %d entries, want 0 after reset", checkpoints.saved.Len())
	}
}

func TestRunSkipsCheckpointedChannel(t *testing.T) {
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha"), sub("UC-b", "Beta")}},
	}
	api.videoPages["UC-a"] = [][]youtube.VideoItem{{{VideoID: "v1", Title: "Old"}}}
	api.videoPages["UC-b"] = [][]youtube.VideoItem{{{VideoID: "v2", Title: "New"}}}
	api.stats["v2"] = youtube.VideoStats{Views: 7}

	writer := &memWriter{}
	checkpoints := &memCheckpoints{initial: checkpoint.NewSet("UC-a")}
	h := New(api, writer, checkpoints, nil, 0)

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(api.searched) != 1 || api.searched[0] != "UC-b" {
		t.Errorf("searched channels = %v, want only UC-b", api.searched)
	}
	if res.ChannelsProcessed != 1 {
		t.Errorf("ChannelsProcessed = %d, want 1", res.ChannelsProcessed)
	}
	if res.CheckpointSize != 2 {
		t.Errorf("CheckpointSize = %d, want 2: pre-reset set must contain both channels", res.CheckpointSize)
	}
	if len(writer.records) != 1 || writer.records[0].VideoTitle != "New" {
		t.Errorf("rows = %+v, want only channel B's video", writer.records)
	}
	if !res.CycleComplete || checkpoints.saved.Len() != 0 {
		t.Errorf("parity with the subscription count must reset the persisted checkpoint; saved = %v", checkpoints.saved.IDs())
	}
}

func TestRunDuplicateSubscriptionDelaysReset(t *testing.T) {
	// The same channel listed twice: the walk counts two entries but the
	// set gains one, so the completion check fails and the set persists.
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha"), sub("UC-a", "Alpha")}},
	}

	writer := &memWriter{}
	checkpoints := &memCheckpoints{}
	h := New(api, writer, checkpoints, nil, 0)

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.CycleComplete {
		t.Error("CycleComplete = true, want false when the set stays below the count")
	}
	if !checkpoints.saved.Has("UC-a") || checkpoints.saved.Len() != 1 {
		t.Errorf("persisted checkpoint = %v, want {UC-a}", checkpoints.saved.IDs())
	}
}

func TestRunMissingStatisticsSkipsRow(t *testing.T) {
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha")}},
	}
	api.videoPages["UC-a"] = [][]youtube.VideoItem{{{VideoID: "gone", Title: "Removed"}}}
	api.noStats["gone"] = true

	writer := &memWriter{}
	checkpoints := &memCheckpoints{}
	h := New(api, writer, checkpoints, nil, 0)

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil: missing statistics are non-fatal", err)
	}
	if len(writer.records) != 0 {
		t.Errorf("stored %d rows, want 0", len(writer.records))
	}
	if res.VideosStored != 0 {
		t.Errorf("VideosStored = %d, want 0", res.VideosStored)
	}
	if res.ChannelsProcessed != 1 {
		t.Errorf("ChannelsProcessed = %d, want 1: the channel still completes", res.ChannelsProcessed)
	}
}

func TestRunTransportErrorLeavesCheckpointUnpersisted(t *testing.T) {
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha")}},
		{Items: []youtube.Subscription{sub("UC-b", "Beta")}},
	}
	api.subErrAt = 1
	api.videoPages["UC-a"] = [][]youtube.VideoItem{{{VideoID: "v1", Title: "Video One"}}}
	api.stats["v1"] = youtube.VideoStats{Views: 1}

	writer := &memWriter{}
	checkpoints := &memCheckpoints{}
	h := New(api, writer, checkpoints, nil, 0)

	_, err := h.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want transport error")
	}
	var apiErr *youtube.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *youtube.APIError", err)
	}

	if checkpoints.saveCalls != 0 {
		t.Errorf("Save called %d times, want 0: partial progress must not be checkpointed", checkpoints.saveCalls)
	}
	if len(writer.records) != 1 {
		t.Errorf("stored %d rows, want 1: rows written before the abort stay", len(writer.records))
	}
}

func TestRunStatisticsTransportErrorAborts(t *testing.T) {
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha")}},
	}
	api.videoPages["UC-a"] = [][]youtube.VideoItem{{{VideoID: "v1", Title: "Video One"}}}
	api.statErr["v1"] = &youtube.APIError{Op: "videos.list", Err: errors.New("connection reset")}

	checkpoints := &memCheckpoints{}
	h := New(api, &memWriter{}, checkpoints, nil, 0)

	if _, err := h.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want transport error from statistics lookup")
	}
	if checkpoints.saveCalls != 0 {
		t.Errorf("Save called %d times, want 0", checkpoints.saveCalls)
	}
}

func TestRunSearchWindowIsTrailing365Days(t *testing.T) {
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha")}},
	}
	api.videoPages["UC-a"] = [][]youtube.VideoItem{{}}

	h := New(api, &memWriter{}, &memCheckpoints{}, nil, 0)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	if _, err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := now.Add(-365 * 24 * time.Hour)
	if !api.publishedAfter.Equal(want) {
		t.Errorf("publishedAfter = %v, want %v", api.publishedAfter, want)
	}
}

// countingPacer records pacing calls.
type countingPacer struct {
	videoCalls int
	pageCalls  int
}

func (p *countingPacer) Video(ctx context.Context) error { p.videoCalls++; return nil }
func (p *countingPacer) Page(ctx context.Context) error  { p.pageCalls++; return nil }

func TestRunPacesVideosAndPages(t *testing.T) {
	api := newFakeAPI()
	api.subPages = []youtube.Page[youtube.Subscription]{
		{Items: []youtube.Subscription{sub("UC-a", "Alpha")}},
	}
	api.videoPages["UC-a"] = [][]youtube.VideoItem{
		{{VideoID: "v1"}, {VideoID: "v2"}},
		{{VideoID: "v3"}},
	}

	pacer := &countingPacer{}
	h := New(api, &memWriter{}, &memCheckpoints{}, pacer, 0)

	if _, err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if pacer.videoCalls != 3 {
		t.Errorf("video pacing calls = %d, want 3 (one per video)", pacer.videoCalls)
	}
	if pacer.pageCalls != 1 {
		t.Errorf("page pacing calls = %d, want 1 (between pages only, not before the first)", pacer.pageCalls)
	}
}
