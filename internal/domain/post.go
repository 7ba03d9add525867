// Package domain holds the core types shared by the store, services and API.
package domain

import "time"

// MaxBodyRunes bounds the optional commentary on a post.
const MaxBodyRunes = 280

// FeedLimit bounds how many posts a feed read returns.
const FeedLimit = 100

// Post is a user's excerpt of one corpus section. Poet, book and section
// titles are copied at posting time so later corpus edits do not change it.
type Post struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	PoetID       string        `json:"poetId"`
	BookID       string        `json:"bookId"`
	SectionID    string        `json:"sectionId"`
	PoetName     string        `json:"poetName"`
	BookTitle    string        `json:"bookTitle"`
	SectionTitle string        `json:"sectionTitle"`
	Body         *string       `json:"body,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	Couplets     []PostCouplet `json:"couplets"`
}

// FeedURL returns the feed location that scrolls to this post.
func (p *Post) FeedURL() string {
	return FeedURL(p.ID)
}

// FeedURL returns the feed anchor for a post id.
func FeedURL(postID string) string {
	return "/feed#" + postID
}

// PostCouplet is the verse text of one selected couplet as it read when the
// post was created.
type PostCouplet struct {
	Index  int    `json:"coupletIndex"`
	First  string `json:"verseFirst"`
	Second string `json:"verseSecond"`
}

// CoupletSelection is a couplet chosen by index within a section. Verse text
// sent along with the index is accepted but never stored; the corpus wins.
type CoupletSelection struct {
	Index       int    `json:"coupletIndex"`
	VerseFirst  string `json:"verseFirst,omitempty"`
	VerseSecond string `json:"verseSecond,omitempty"`
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	LikeCount int  `json:"likeCount"`
	Liked     bool `json:"liked"`
}

// FeedPost is a post ready for display to a particular viewer.
type FeedPost struct {
	Post
	AuthorName string `json:"authorName"`
	LikeCount  int    `json:"likeCount"`
	IsLiked    bool   `json:"isLiked"`
	// PostedAgo is a relative label computed when the feed is read.
	PostedAgo string `json:"postedAgo,omitempty"`
}
