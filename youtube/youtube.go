// Package youtube wraps the YouTube Data API v3 surface this harvester
// consumes: the caller's subscription list, per-channel video search, and
// per-video statistics.
package youtube

import (
	"context"
	"errors"
	"time"

	"google.golang.org/api/googleapi"
)

// ErrNoStatistics indicates the statistics lookup for a video returned an
// empty item list. Callers treat this as non-fatal and skip the video.
var ErrNoStatistics = errors.New("youtube: no statistics for video")

// Subscription identifies a channel the caller follows.
type Subscription struct {
	// ChannelID is the stable opaque channel identifier.
	ChannelID string
	// ChannelTitle is the channel's display name at fetch time. It is not
	// unique and may change between runs.
	ChannelTitle string
}

// VideoItem is one video returned by a channel search.
type VideoItem struct {
	VideoID string
	Title   string
}

// VideoStats holds a video's engagement counters. Counters the API omits
// from the response stay zero.
type VideoStats struct {
	Views        int64
	Likes        int64
	CommentCount int64
}

// API is the remote surface the harvester depends on. The production
// implementation is Client; tests substitute fakes.
type API interface {
	// Subscriptions fetches one page of the caller's subscriptions. The
	// empty pageToken requests the first page.
	Subscriptions(ctx context.Context, pageToken string) (Page[Subscription], error)

	// SearchVideos fetches one page of videos published on the channel
	// after the given time.
	SearchVideos(ctx context.Context, channelID string, publishedAfter time.Time, pageToken string) (Page[VideoItem], error)

	// VideoStatistics fetches engagement counters for a single video.
	// It returns ErrNoStatistics when the API has no item for the video.
	VideoStatistics(ctx context.Context, videoID string) (VideoStats, error)
}

// APIError wraps a transport-level Data API failure with the call that
// produced it. Use errors.As() to extract it and report the HTTP status:
//
//	var apiErr *youtube.APIError
//	if errors.As(err, &apiErr) {
//		code, body := apiErr.Status()
//		log.Printf("HTTP %d from %s: %s", code, apiErr.Op, body)
//	}
type APIError struct {
	// Op is the API method that failed, e.g. "subscriptions.list".
	Op string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	return "youtube: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *APIError) Unwrap() error { return e.Err }

// Status returns the HTTP status code and response payload when the
// underlying error came from the API transport, or zero values otherwise.
func (e *APIError) Status() (int, string) {
	var gerr *googleapi.Error
	if errors.As(e.Err, &gerr) {
		return gerr.Code, gerr.Body
	}
	return 0, ""
}
