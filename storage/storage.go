// Package storage persists harvested video records.
package storage

import "context"

// VideoRecord is one row of the videos table. The channel title is
// denormalized at fetch time rather than joined to a channel table. There is
// no uniqueness constraint, so the same video may be recorded again in a
// later cycle.
type VideoRecord struct {
	ChannelTitle string `db:"channel_title"`
	VideoTitle   string `db:"video_title"`
	Views        int64  `db:"views"`
	Likes        int64  `db:"likes"`
	CommentCount int64  `db:"comment_count"`
}

// VideoWriter appends harvested records. Rows are never updated or deleted.
type VideoWriter interface {
	InsertVideo(ctx context.Context, rec VideoRecord) error
}
