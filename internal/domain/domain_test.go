package domain_test

import (
	"codetransform/internal/domain"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformRequestDecodesKindNames(t *testing.T) {
	var req domain.TransformRequest
	err := json.Unmarshal([]byte(`{
		"prompt": "Convert to Go",
		"sourceUrl": "https://example.com/repo.zip",
		"sourceType": "repository"
	}`), &req)
	require.NoError(t, err)

	assert.Equal(t, "Convert to Go", req.Prompt)
	assert.Equal(t, "https://example.com/repo.zip", req.SourceURL)
	assert.Equal(t, domain.SourceKindRepository, req.SourceType)
}

func TestTransformRequestDecodesKindOrdinals(t *testing.T) {
	var req domain.TransformRequest
	require.NoError(t, json.Unmarshal([]byte(`{"sourceType": 1}`), &req))
	assert.Equal(t, domain.SourceKindRepository, req.SourceType)

	require.NoError(t, json.Unmarshal([]byte(`{"sourceType": 0}`), &req))
	assert.Equal(t, domain.SourceKindFile, req.SourceType)
}

func TestTransformRequestRejectsUnknownKind(t *testing.T) {
	var req domain.TransformRequest
	assert.Error(t, json.Unmarshal([]byte(`{"sourceType": "Folder"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"sourceType": 7}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"sourceType": true}`), &req))
}

func TestSourceKindMarshalsName(t *testing.T) {
	data, err := json.Marshal(domain.SourceKindFile)
	require.NoError(t, err)
	assert.JSONEq(t, `"File"`, string(data))
}

func TestRequestIDRoundTripsThroughContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, domain.RequestIDFromContext(ctx))

	ctx = domain.ContextWithRequestID(ctx, "abc")
	assert.Equal(t, "abc", domain.RequestIDFromContext(ctx))
}
