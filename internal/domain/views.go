package domain

import "github.com/google/uuid"

// Views are viewer-scoped read projections. They are never persisted and
// always recomputed per request from the aggregate plus the viewer's
// relationship rows, so one viewer's state can never leak into another's
// response.

// ProfileView is a profile as seen by a particular viewer.
type ProfileView struct {
	Profile   Profile
	Following bool
	Viewer    uuid.UUID
}

// ArticleView is an article as seen by a particular viewer.
type ArticleView struct {
	Slug           string
	Content        ArticleContent
	Author         ProfileView
	Metadata       ArticleMetadata
	Favorited      bool
	FavoritesCount int64
	Viewer         uuid.UUID
}

// FeedQuery paginates a user's feed.
type FeedQuery struct {
	Limit  int64
	Offset int64
}
