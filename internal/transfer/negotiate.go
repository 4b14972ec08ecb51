package transfer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cpan115/pan115/internal/api"
)

// NegotiationState is the terminal state of one upload handshake.
type NegotiationState int

const (
	// StateInstantComplete: the service deduplicated the content; the
	// upload is done without a byte transfer.
	StateInstantComplete NegotiationState = iota

	// StateReadyForTransfer: the caller must push bytes to the
	// object-storage destination in Negotiation.Init.
	StateReadyForTransfer
)

// Negotiation is the outcome of a successful handshake.
type Negotiation struct {
	State NegotiationState
	Init  *api.InitData
}

// Negotiator runs the resumable-upload handshake: init, an optional
// second-factor signing round, and the instant-upload decision.
type Negotiator struct {
	upload *api.UploadAPI
}

func NewNegotiator(upload *api.UploadAPI) *Negotiator {
	return &Negotiator{upload: upload}
}

// Negotiate runs the handshake for one local file whose digests are already
// computed. Errors are per-file failures; the caller records them without
// aborting sibling transfers.
func (n *Negotiator) Negotiate(ctx context.Context, localPath string, digest *Digest, targetID int64) (*Negotiation, error) {
	params := &api.InitParams{
		FileName: filepath.Base(localPath),
		FileSize: digest.Size,
		Target:   targetID,
		FileID:   digest.SHA1,
		PreID:    digest.Prefix,
	}

	data, err := n.upload.Init(ctx, params)
	if err != nil {
		return nil, err
	}

	if data.NeedsSignCheck() {
		// Prove possession: hash the challenged byte range and resubmit.
		// The protocol allows at most one challenge round.
		signVal, err := HashRange(localPath, data.SignCheck)
		if err != nil {
			return nil, fmt.Errorf("second-factor signing: %w", err)
		}

		params.SignKey = data.SignKey
		params.SignVal = signVal

		data, err = n.upload.Init(ctx, params)
		if err != nil {
			return nil, err
		}
		if data.NeedsSignCheck() {
			return nil, fmt.Errorf("second-factor signing: repeated challenge for %q", params.FileName)
		}
	}

	if data.Instant() {
		return &Negotiation{State: StateInstantComplete, Init: data}, nil
	}

	if data.Bucket == "" || data.Object == "" {
		return nil, fmt.Errorf("upload init: no dedup and no transfer destination (status %d)", data.Status.Int64())
	}

	return &Negotiation{State: StateReadyForTransfer, Init: data}, nil
}
