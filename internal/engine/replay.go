package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// ChunkSource is the read contract the reconstructor needs from the replay
// chunk store. Chunks must be returned in ascending SequenceID order.
type ChunkSource interface {
	GetReplayChunks(ctx context.Context, siteID, sessionID string) ([]ReplayChunk, error)
}

// Reconstructor merges chunked replay batches for one session into a single
// chronologically faithful event stream.
type Reconstructor struct {
	chunks ChunkSource
}

// NewReconstructor creates a new replay reconstructor.
func NewReconstructor(chunks ChunkSource) *Reconstructor {
	return &Reconstructor{chunks: chunks}
}

// Reconstruct flattens every chunk's event batch, sorts by embedded event
// timestamp and derives session timing metadata. The sort is stable so that
// same-timestamp events keep chunk-sequence order, which keeps playback
// deterministic even when chunks arrived network-reordered. Returns
// ErrNotFound when no chunks exist or no chunk yields a single event.
func (r *Reconstructor) Reconstruct(ctx context.Context, siteID, sessionID string) (*ReconstructedSession, error) {
	if siteID == "" || sessionID == "" {
		return nil, fmt.Errorf("%w: site id and session id are required", ErrInvalidArgument)
	}

	chunks, err := r.chunks.GetReplayChunks(ctx, siteID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNotFound
	}

	events := make([]ReplayEvent, 0, len(chunks)*32)
	for _, chunk := range chunks {
		batch, err := decodeChunk(chunk)
		if err != nil {
			log.Warn().
				Err(err).
				Str("site_id", siteID).
				Str("session_id", sessionID).
				Int64("sequence_id", chunk.SequenceID).
				Msg("Skipping malformed replay chunk")
			continue
		}
		events = append(events, batch...)
	}

	if len(events) == 0 {
		return nil, ErrNotFound
	}

	// Chunks were flattened in ascending sequence order, so a stable sort on
	// the embedded timestamp preserves chunk-sequence and intra-chunk order
	// for ties.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	return &ReconstructedSession{
		SiteID:      siteID,
		SessionID:   sessionID,
		Events:      events,
		StartTime:   events[0].Timestamp,
		EndTime:     events[len(events)-1].Timestamp,
		DurationMs:  events[len(events)-1].Timestamp - events[0].Timestamp,
		TotalEvents: len(events),
	}, nil
}

// decodeChunk returns the chunk's event batch, decoding the serialized
// payload when the batch was not already structured.
func decodeChunk(chunk ReplayChunk) ([]ReplayEvent, error) {
	if chunk.Events != nil {
		return chunk.Events, nil
	}
	if len(chunk.Payload) == 0 {
		return nil, nil
	}

	var batch []ReplayEvent
	if err := json.Unmarshal(chunk.Payload, &batch); err != nil {
		return nil, fmt.Errorf("%w: sequence %d: %v", ErrMalformedChunk, chunk.SequenceID, err)
	}
	return batch, nil
}
