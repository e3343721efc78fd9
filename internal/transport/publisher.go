// Package transport abstracts the publication side of the scheduler. The
// scheduler hands a post's validated content and its account credential to a
// Publisher and gets back remote identifiers or a failure; everything below
// that line (HTTP clients, API quirks, rate limits of the remote service) is
// a collaborator concern and stays out of the scheduling core.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
)

// Transport-level errors.
var (
	// ErrUnsupportedPlatform is returned by a Registry when no publisher is
	// registered for an account's platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrMissingCredential is returned when a publish request carries no
	// access token.
	ErrMissingCredential = errors.New("missing account credential")
)

// PublishRequest carries everything a Publisher needs for one post.
type PublishRequest struct {
	// Platform the owning account belongs to.
	Platform domain.Platform
	// Credential is the account's opaque access token.
	Credential string
	// Content is the validated, mode-tagged content of the post.
	Content domain.Content
	// Media are opaque attachment identifiers, applied to the first
	// published unit only.
	Media []string
}

// PublishResult reports a successful publication.
type PublishResult struct {
	// PublishedID is the remote id of the published item; for threads, the
	// id of the first segment.
	PublishedID string
	// ThreadIDs lists the remote ids of all published units in order.
	// Empty for non-thread modes.
	ThreadIDs []string
}

// Publisher performs the publish operation for one platform. A nil error
// guarantees a non-empty PublishedID; any failure, including a partially
// published thread, is reported as an error.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
}

// Registry routes publish requests to the Publisher registered for the
// account's platform. The zero value is empty; use NewRegistry or Register.
type Registry struct {
	publishers map[domain.Platform]Publisher
}

// NewRegistry builds a registry from a platform -> publisher map.
func NewRegistry(publishers map[domain.Platform]Publisher) *Registry {
	r := &Registry{publishers: make(map[domain.Platform]Publisher, len(publishers))}
	for platform, p := range publishers {
		r.publishers[platform] = p
	}
	return r
}

// Register adds (or replaces) the publisher for a platform.
func (r *Registry) Register(platform domain.Platform, p Publisher) {
	if r.publishers == nil {
		r.publishers = make(map[domain.Platform]Publisher)
	}
	r.publishers[platform] = p
}

// Supports reports whether a publisher is registered for the platform.
func (r *Registry) Supports(platform domain.Platform) bool {
	_, ok := r.publishers[platform]
	return ok
}

// Publish validates the request envelope and dispatches it to the platform's
// publisher. Unsupported platforms and missing credentials fail before any
// publisher is invoked.
func (r *Registry) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	p, ok := r.publishers[req.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, req.Platform)
	}
	if req.Credential == "" {
		return nil, ErrMissingCredential
	}
	return p.Publish(ctx, req)
}
