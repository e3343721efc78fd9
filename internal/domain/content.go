// Package domain – content variants
//
// This file defines the mode-tagged view of a post's content. Stored posts
// keep all content columns side by side (body, segments, references); the
// variant types here carry only the fields valid for their mode, so code
// downstream of Content() cannot observe an invalid combination such as a
// thread with a reply reference.
package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Content-validation errors returned by Post.Content().
var (
	// ErrEmptyBody is returned when a single/reply/quote post has no body.
	ErrEmptyBody = errors.New("post body is empty")

	// ErrBodyTooLong is returned when a body or thread segment exceeds
	// MaxUnitRunes.
	ErrBodyTooLong = fmt.Errorf("post body exceeds %d characters", MaxUnitRunes)

	// ErrThreadTooShort is returned when a thread post has fewer than two
	// segments.
	ErrThreadTooShort = errors.New("thread needs at least 2 segments")

	// ErrMissingReference is returned when a reply post has no in-reply-to id
	// or a quote post has no quoted id.
	ErrMissingReference = errors.New("post is missing its reference id")

	// ErrUnknownMode is returned for a mode value outside the known set.
	ErrUnknownMode = errors.New("unknown post mode")
)

// Content is the mode-tagged view of a post's publishable content. Exactly
// one concrete type implements it per PostMode.
type Content interface {
	// Mode identifies the concrete variant.
	Mode() PostMode
}

// SingleContent is a standalone short-text post.
type SingleContent struct {
	Body string
}

// Mode implements Content.
func (SingleContent) Mode() PostMode { return ModeSingle }

// ThreadContent is an ordered sequence of segments published as a chain.
type ThreadContent struct {
	Segments []string
}

// Mode implements Content.
func (ThreadContent) Mode() PostMode { return ModeThread }

// ReplyContent is a short-text reply to an existing remote item.
type ReplyContent struct {
	Body        string
	InReplyToID string
}

// Mode implements Content.
func (ReplyContent) Mode() PostMode { return ModeReply }

// QuoteContent is a short-text post quoting an existing remote item.
type QuoteContent struct {
	Body     string
	QuotedID string
}

// Mode implements Content.
func (QuoteContent) Mode() PostMode { return ModeQuote }

// Content validates the post's stored content columns against its mode and
// returns the tagged variant. It is the only sanctioned way to read content
// for publication; a validation error here marks the post failed without a
// transport call.
func (p *Post) Content() (Content, error) {
	switch p.Mode {
	case ModeSingle:
		if err := checkUnit(p.Body); err != nil {
			return nil, err
		}
		return SingleContent{Body: p.Body}, nil

	case ModeThread:
		if len(p.Segments) < 2 {
			return nil, ErrThreadTooShort
		}
		for i, seg := range p.Segments {
			if err := checkUnit(seg); err != nil {
				return nil, fmt.Errorf("segment %d: %w", i+1, err)
			}
		}
		return ThreadContent{Segments: p.Segments}, nil

	case ModeReply:
		if err := checkUnit(p.Body); err != nil {
			return nil, err
		}
		if p.InReplyToID == nil || *p.InReplyToID == "" {
			return nil, ErrMissingReference
		}
		return ReplyContent{Body: p.Body, InReplyToID: *p.InReplyToID}, nil

	case ModeQuote:
		if err := checkUnit(p.Body); err != nil {
			return nil, err
		}
		if p.QuotedID == nil || *p.QuotedID == "" {
			return nil, ErrMissingReference
		}
		return QuoteContent{Body: p.Body, QuotedID: *p.QuotedID}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, p.Mode)
	}
}

// checkUnit enforces the per-unit length bound.
func checkUnit(s string) error {
	if s == "" {
		return ErrEmptyBody
	}
	if utf8.RuneCountInString(s) > MaxUnitRunes {
		return ErrBodyTooLong
	}
	return nil
}
