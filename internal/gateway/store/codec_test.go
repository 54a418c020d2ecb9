package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/pkg/cryptox"
)

func TestCodec_Sealed(t *testing.T) {
	sealer, err := cryptox.NewSealer([]byte("secret"), "session")
	require.NoError(t, err)
	codec := NewCodec(sealer)

	in := domain.Session{
		ID:        "01J00000000000000000000000",
		Key:       "fp-1",
		User:      domain.User{ID: "u1", Email: "ada@example.com"},
		Token:     domain.Token{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 42},
		Version:   3,
		ExpiresAt: time.Unix(1700000000, 0).UTC(),
	}

	blob, err := codec.Encode(in)
	require.NoError(t, err)
	require.NotContains(t, string(blob), "ada@example.com")

	out, err := codec.Decode("fp-1", blob)
	require.NoError(t, err)
	require.Equal(t, in, out)

	_, err = codec.Decode("fp-2", blob)
	require.ErrorIs(t, err, ErrCorrupt, "blob is bound to its key")
}

func TestCodec_UnreadableRecords(t *testing.T) {
	sealerA, err := cryptox.NewSealer(nil, "session")
	require.NoError(t, err)
	sealerB, err := cryptox.NewSealer(nil, "session")
	require.NoError(t, err)

	blob, err := NewCodec(sealerA).Encode(domain.Session{Key: "k", Version: 1})
	require.NoError(t, err)

	_, err = NewCodec(sealerB).Decode("k", blob)
	require.ErrorIs(t, err, ErrCorrupt, "different secret")

	_, err = NewCodec(sealerA).Decode("k", []byte("short"))
	require.ErrorIs(t, err, ErrCorrupt, "truncated blob")

	_, err = NewCodec(nil).Decode("k", []byte("{not json"))
	require.ErrorIs(t, err, ErrCorrupt, "bad payload")
}

func TestCodec_Plain(t *testing.T) {
	codec := NewCodec(nil)

	blob, err := codec.Encode(domain.Session{Key: "k", Version: 1})
	require.NoError(t, err)
	require.Contains(t, string(blob), `"version":1`)

	out, err := codec.Decode("k", blob)
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Version)
}
