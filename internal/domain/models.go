// Package domain defines the persistence models for social accounts and
// posts. These types are mapped with GORM and form the core data layer of
// the scheduling engine.
package domain

import (
	"time"
)

// PostStatus is the lifecycle state of a Post.
type PostStatus string

// Post lifecycle states. The scheduler only ever moves a post from
// StatusScheduled to StatusPosted or StatusFailed; drafts are untouched.
const (
	StatusDraft     PostStatus = "draft"
	StatusScheduled PostStatus = "scheduled"
	StatusPosted    PostStatus = "posted"
	StatusFailed    PostStatus = "failed"
)

// PostMode is the structural variant of a post's content.
type PostMode string

// Post content modes.
const (
	ModeSingle PostMode = "single"
	ModeThread PostMode = "thread"
	ModeReply  PostMode = "reply"
	ModeQuote  PostMode = "quote"
)

// Platform identifies the remote publishing service an account belongs to.
type Platform string

// Supported platforms.
const (
	PlatformTwitter  Platform = "twitter"
	PlatformMastodon Platform = "mastodon"
	PlatformBluesky  Platform = "bluesky"
)

// RepeatFrequency is the unit step of a recurring series.
type RepeatFrequency string

// Recurrence frequencies.
const (
	RepeatDaily   RepeatFrequency = "daily"
	RepeatWeekly  RepeatFrequency = "weekly"
	RepeatMonthly RepeatFrequency = "monthly"
)

// MaxUnitRunes bounds the length of a single published unit (a post body or
// one thread segment), counted in runes.
const MaxUnitRunes = 280

// Account represents a connected social media account. The scheduling core
// reads accounts (credential, platform, active flag) but never writes them;
// token acquisition and refresh belong to the surrounding application.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display handle, used in logs and on the ops surface.
//   - Platform: remote service discriminator (twitter/mastodon/bluesky).
//   - AccessToken: opaque credential handed to the publication transport.
//   - IsActive: posts owned by inactive accounts are never selected.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Account struct {
	ID          string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name        string    `json:"name"      gorm:"type:varchar(255);not null"`
	Platform    Platform  `json:"platform"  gorm:"type:varchar(32);not null;check:platform IN ('twitter','mastodon','bluesky')"`
	AccessToken string    `json:"-"         gorm:"type:text;not null"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// Post represents a unit of content with a publication lifecycle. A post is
// created as draft or scheduled by the surrounding application; from then on
// only the scheduler mutates it (status, result fields, timestamps).
//
// Exactly one content shape applies, selected by Mode:
//   - single: Body
//   - thread: Segments (>= 2 entries, each within MaxUnitRunes)
//   - reply:  Body + InReplyToID
//   - quote:  Body + QuotedID
//
// Use Content() to obtain the validated, mode-tagged view; the raw columns
// exist only for persistence.
//
// Recurrence: when RepeatEnabled is set, a successful publish spawns the next
// occurrence as a fresh scheduled post. ParentID points at the root post of
// the series (nil on the root itself) and Occurrence is the 1-based index of
// this post within the series.
type Post struct {
	ID        string   `json:"id"         gorm:"type:char(36);primaryKey"`
	AccountID string   `json:"account_id" gorm:"type:char(36);not null;index"`
	Mode      PostMode `json:"mode"       gorm:"type:varchar(16);not null;check:mode IN ('single','thread','reply','quote')"`

	Body        string   `json:"body,omitempty"           gorm:"type:text"`
	Segments    []string `json:"segments,omitempty"       gorm:"serializer:json"`
	InReplyToID *string  `json:"in_reply_to_id,omitempty" gorm:"type:varchar(64)"`
	QuotedID    *string  `json:"quoted_id,omitempty"      gorm:"type:varchar(64)"`
	Media       []string `json:"media,omitempty"          gorm:"serializer:json"`

	Status      PostStatus `json:"status"                 gorm:"type:varchar(16);not null;default:'draft';index:idx_posts_due,priority:1;check:status IN ('draft','scheduled','posted','failed')"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" gorm:"index:idx_posts_due,priority:2"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`

	PublishedID  *string  `json:"published_id,omitempty"  gorm:"type:varchar(64)"`
	ThreadIDs    []string `json:"thread_ids,omitempty"    gorm:"serializer:json"`
	ErrorMessage *string  `json:"error_message,omitempty" gorm:"type:text"`

	RepeatEnabled   bool            `json:"repeat_enabled"             gorm:"not null;default:false"`
	RepeatFrequency RepeatFrequency `json:"repeat_frequency,omitempty" gorm:"type:varchar(16)"`
	RepeatUntil     *time.Time      `json:"repeat_until,omitempty"`
	RepeatCount     int             `json:"repeat_count,omitempty"` // 0 = unlimited
	ParentID        *string         `json:"parent_id,omitempty"     gorm:"type:char(36);index"`
	Occurrence      int             `json:"occurrence"              gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Account is the owning credential holder. The due-post query joins and
	// loads it so publication needs no second round trip.
	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// RootID returns the id of the series root this post belongs to: its ParentID
// when set, otherwise its own id.
func (p *Post) RootID() string {
	if p.ParentID != nil && *p.ParentID != "" {
		return *p.ParentID
	}
	return p.ID
}
