package store

import (
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/pkg/cryptox"
)

// Codec serialises session snapshots for drivers that store opaque blobs.
// With a sealer the blob is encrypted and bound to the session key.
type Codec struct {
	sealer *cryptox.Sealer
}

func NewCodec(sealer *cryptox.Sealer) *Codec {
	return &Codec{sealer: sealer}
}

func (c *Codec) Encode(s domain.Session) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if c == nil || c.sealer == nil {
		return raw, nil
	}
	return c.sealer.Seal(raw, []byte(s.Key))
}

func (c *Codec) Decode(key string, blob []byte) (domain.Session, error) {
	raw := blob
	if c != nil && c.sealer != nil {
		var err error
		raw, err = c.sealer.Open(blob, []byte(key))
		if err != nil {
			return domain.Session{}, fmt.Errorf("%w: open session: %w", ErrCorrupt, err)
		}
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Session{}, fmt.Errorf("%w: decode session: %w", ErrCorrupt, err)
	}
	return s, nil
}
