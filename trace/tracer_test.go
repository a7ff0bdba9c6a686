// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledIsNoop(t *testing.T) {
	require := require.New(t)

	tr, err := New(NewDefaultConfig())
	require.NoError(err)
	require.Equal(Noop, tr)

	_, span := tr.Start(context.Background(), "test")
	require.False(span.IsRecording())
	span.End()
	require.NoError(tr.Close())
}

func TestEnabled(t *testing.T) {
	require := require.New(t)

	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.SampleRate = 1
	tr, err := New(cfg)
	require.NoError(err)

	_, span := tr.Start(context.Background(), "test")
	require.True(span.IsRecording())
	span.End()
	// Nothing listens on the collector so the export fails; shutdown must
	// still return.
	_ = tr.Close()

	cfg.Endpoint = ""
	_, err = New(cfg)
	require.ErrorIs(err, ErrMissingEndpoint)
}
