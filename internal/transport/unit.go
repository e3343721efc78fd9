// Package transport – unit fan-out
//
// Remote publishing APIs are uniformly "create one status item" calls; a
// thread is a chain of such calls where each unit replies to its predecessor.
// UnitPublisher owns that fan-out so concrete platform clients only have to
// implement the single-item Poster call.
package transport

import (
	"context"
	"fmt"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
)

// UnitRequest is one "create item" call against the remote API.
type UnitRequest struct {
	// Credential is the account's opaque access token.
	Credential string
	// Text is the unit's body.
	Text string
	// InReplyToID, when set, makes the unit a reply to that remote item.
	// For thread segments after the first, this is the previous segment's id.
	InReplyToID string
	// QuoteOfID, when set, makes the unit quote that remote item.
	QuoteOfID string
	// Media are opaque attachment ids for this unit.
	Media []string
}

// Poster is the raw client boundary: it publishes exactly one unit and
// returns its remote id. Implementations live outside the scheduling core
// (real API clients) or in tests (recording fakes).
type Poster interface {
	Post(ctx context.Context, req UnitRequest) (string, error)
}

// UnitPublisher implements Publisher on top of a per-unit Poster.
type UnitPublisher struct {
	Poster Poster
}

// NewUnitPublisher wraps a Poster in the standard fan-out.
func NewUnitPublisher(p Poster) *UnitPublisher {
	return &UnitPublisher{Poster: p}
}

// Publish maps the mode-tagged content onto Poster calls:
//
//   - single: one call
//   - reply / quote: one call carrying the reference id
//   - thread: one call per segment, in order, each replying to the id
//     returned by the previous call; media is attached to the first
//     segment only
//
// A failing segment aborts the chain; already-published segments are not
// (and cannot be) rolled back, so the whole post is reported failed with
// the segment position in the message.
func (u *UnitPublisher) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	switch c := req.Content.(type) {
	case domain.SingleContent:
		id, err := u.Poster.Post(ctx, UnitRequest{
			Credential: req.Credential,
			Text:       c.Body,
			Media:      req.Media,
		})
		if err != nil {
			return nil, err
		}
		return &PublishResult{PublishedID: id}, nil

	case domain.ReplyContent:
		id, err := u.Poster.Post(ctx, UnitRequest{
			Credential:  req.Credential,
			Text:        c.Body,
			InReplyToID: c.InReplyToID,
			Media:       req.Media,
		})
		if err != nil {
			return nil, err
		}
		return &PublishResult{PublishedID: id}, nil

	case domain.QuoteContent:
		id, err := u.Poster.Post(ctx, UnitRequest{
			Credential: req.Credential,
			Text:       c.Body,
			QuoteOfID:  c.QuotedID,
			Media:      req.Media,
		})
		if err != nil {
			return nil, err
		}
		return &PublishResult{PublishedID: id}, nil

	case domain.ThreadContent:
		ids := make([]string, 0, len(c.Segments))
		prev := ""
		for i, seg := range c.Segments {
			unit := UnitRequest{
				Credential:  req.Credential,
				Text:        seg,
				InReplyToID: prev,
			}
			if i == 0 {
				unit.Media = req.Media
			}
			id, err := u.Poster.Post(ctx, unit)
			if err != nil {
				return nil, fmt.Errorf("thread segment %d/%d: %w", i+1, len(c.Segments), err)
			}
			ids = append(ids, id)
			prev = id
		}
		return &PublishResult{PublishedID: ids[0], ThreadIDs: ids}, nil

	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownMode, req.Content)
	}
}
