package main

import (
	"context"
	"testing"

	"bookpublish/internal/config"
	"bookpublish/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	cfg := config.Config{
		ISBNStore:             config.StoreMemory,
		ISBNPrefix:            "978-1-7361",
		ImageFetchConcurrency: 1,
		RenderDPI:             72,
	}
	require.NoError(t, run(context.Background(), cfg, logging.NewNop(), "demo", 3))
}

func TestRun_PoolExhausted(t *testing.T) {
	cfg := config.Config{
		ISBNStore:             config.StoreMemory,
		ISBNPrefix:            "978-1-7361000",
		ImageFetchConcurrency: 1,
		RenderDPI:             72,
	}
	err := run(context.Background(), cfg, logging.NewNop(), "demo", 10)
	assert.ErrorContains(t, err, "pool exhausted")
}
