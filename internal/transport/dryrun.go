package transport

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DryRunPoster is a Poster that publishes nowhere: it logs the unit and
// fabricates a remote id. It backs SMM_DRY_RUN deployments, letting the whole
// pipeline (selection, transitions, recurrence) run without touching a real
// platform API.
type DryRunPoster struct {
	Log zerolog.Logger
}

// Post logs the would-be publication and returns a generated id.
func (d *DryRunPoster) Post(ctx context.Context, req UnitRequest) (string, error) {
	id := "dryrun-" + uuid.NewString()
	d.Log.Info().
		Str("published_id", id).
		Str("in_reply_to", req.InReplyToID).
		Str("quote_of", req.QuoteOfID).
		Int("media", len(req.Media)).
		Int("text_len", len(req.Text)).
		Msg("dry-run publish")
	return id, nil
}
