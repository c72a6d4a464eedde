package leads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-synced/Magnet/internal/discoveryctx"
)

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, err := repo.Create(ctx, &RegisterRequest{Email: "funnel@example.com", SubscribeNewsletter: true})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, lead.Status)
	assert.NotEmpty(t, lead.ID)

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.Email, got.Email)

	dctx := discoveryctx.Context{
		Industry:     "SaaS",
		Challenges:   []string{"churn"},
		Tools:        []string{"Salesforce"},
		Continuation: "wants guidance",
	}
	withDiscovery, err := repo.AttachDiscovery(ctx, lead.ID, dctx)
	require.NoError(t, err)
	require.NotNil(t, withDiscovery.Discovery)
	assert.Equal(t, "SaaS", withDiscovery.Discovery.Industry)
	require.NotNil(t, withDiscovery.DiscoveryAt)

	qualified, err := repo.UpdateStatus(ctx, lead.ID, StatusQualified)
	require.NoError(t, err)
	assert.Equal(t, StatusQualified, qualified.Status)

	_, err = repo.UpdateStatus(ctx, lead.ID, "sideways")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestInMemoryRepositoryListFilters(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var ids []string
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		lead, err := repo.Create(ctx, &RegisterRequest{Email: email})
		require.NoError(t, err)
		ids = append(ids, lead.ID)
	}
	_, err := repo.UpdateStatus(ctx, ids[0], StatusQualified)
	require.NoError(t, err)

	qualified, err := repo.List(ctx, ListFilter{Status: StatusQualified})
	require.NoError(t, err)
	require.Len(t, qualified, 1)
	assert.Equal(t, "a@x.com", qualified[0].Email)

	limited, err := repo.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	offset, err := repo.List(ctx, ListFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, offset)
}

func TestCloneLeadIsolation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, err := repo.Create(ctx, &RegisterRequest{Email: "iso@example.com"})
	require.NoError(t, err)
	_, err = repo.AttachDiscovery(ctx, lead.ID, discoveryctx.Context{Industry: "Retail", Challenges: []string{"stock"}})
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	first.Discovery.Challenges[0] = "mutated"
	first.Status = "mutated"

	second, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "stock", second.Discovery.Challenges[0])
	assert.Equal(t, StatusNew, second.Status)
}
