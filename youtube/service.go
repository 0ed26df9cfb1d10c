package youtube

import (
	"context"
	"time"

	"google.golang.org/api/youtube/v3"
)

// maxPageSize is the Data API maximum for list endpoints.
const maxPageSize = 50

// Client implements API using YouTube Data API v3.
type Client struct {
	service *youtube.Service
}

// NewClient wraps an authenticated Data API service handle.
func NewClient(service *youtube.Service) *Client {
	return &Client{service: service}
}

// Subscriptions fetches one page of the authenticated user's subscriptions.
func (c *Client) Subscriptions(ctx context.Context, pageToken string) (Page[Subscription], error) {
	call := c.service.Subscriptions.List([]string{"snippet"}).
		Mine(true).
		MaxResults(maxPageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return Page[Subscription]{}, &APIError{Op: "subscriptions.list", Err: err}
	}
	return subscriptionPage(resp), nil
}

// SearchVideos fetches one page of videos published on the channel after
// the given time.
func (c *Client) SearchVideos(ctx context.Context, channelID string, publishedAfter time.Time, pageToken string) (Page[VideoItem], error) {
	call := c.service.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
		Type("video").
		MaxResults(maxPageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return Page[VideoItem]{}, &APIError{Op: "search.list", Err: err}
	}
	return videoPage(resp), nil
}

// VideoStatistics fetches engagement counters for a single video.
func (c *Client) VideoStatistics(ctx context.Context, videoID string) (VideoStats, error) {
	call := c.service.Videos.List([]string{"statistics"}).
		Id(videoID).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return VideoStats{}, &APIError{Op: "videos.list", Err: err}
	}
	if len(resp.Items) == 0 {
		return VideoStats{}, ErrNoStatistics
	}
	return videoStats(resp.Items[0]), nil
}

func subscriptionPage(resp *youtube.SubscriptionListResponse) Page[Subscription] {
	page := Page[Subscription]{NextToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil {
			continue
		}
		page.Items = append(page.Items, Subscription{
			ChannelID:    item.Snippet.ResourceId.ChannelId,
			ChannelTitle: item.Snippet.Title,
		})
	}
	return page
}

func videoPage(resp *youtube.SearchListResponse) Page[VideoItem] {
	page := Page[VideoItem]{NextToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		video := VideoItem{VideoID: item.Id.VideoId}
		if item.Snippet != nil {
			video.Title = item.Snippet.Title
		}
		page.Items = append(page.Items, video)
	}
	return page
}

func videoStats(item *youtube.Video) VideoStats {
	s := item.Statistics
	if s == nil {
		return VideoStats{}
	}
	return VideoStats{
		Views:        int64(s.ViewCount),
		Likes:        int64(s.LikeCount),
		CommentCount: int64(s.CommentCount),
	}
}
