package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestHashVector(t *testing.T) {
	a := HashVector("brand voice is playful", Dimensions)
	b := HashVector("Brand voice is playful", Dimensions)
	c := HashVector("crawl budget wasted on facets", Dimensions)

	assert.Len(t, a, Dimensions)
	assert.InDelta(t, 1.0, cosine(a, a), 1e-5)
	assert.InDelta(t, 1.0, cosine(a, b), 1e-5)
	assert.Less(t, cosine(a, c), 0.5)

	empty := HashVector("", 8)
	assert.Equal(t, float32(1), empty[0])
}

func TestCachedClient(t *testing.T) {
	mock := NewMockClient()
	cached, err := NewCachedClient(mock, 100)
	require.NoError(t, err)
	defer cached.Close()

	ctx := context.Background()
	v1, err := cached.Embed(ctx, "hello world")
	require.NoError(t, err)
	cached.Wait()

	v2, err := cached.Embed(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, mock.Calls, 1)
}

func TestCachedClient_ErrorNotCached(t *testing.T) {
	mock := NewMockClient()
	mock.Err = errors.New("provider down")
	cached, err := NewCachedClient(mock, 100)
	require.NoError(t, err)
	defer cached.Close()

	_, err = cached.Embed(context.Background(), "x")
	assert.Error(t, err)

	mock.Err = nil
	_, err = cached.Embed(context.Background(), "x")
	assert.NoError(t, err)
	assert.Len(t, mock.Calls, 2)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(context.Background(), ProviderOpenAI, "")
	assert.Error(t, err)

	c, err := NewClient(context.Background(), ProviderMock, "")
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	_, err = NewClient(context.Background(), "cohere", "k")
	assert.Error(t, err)
}
