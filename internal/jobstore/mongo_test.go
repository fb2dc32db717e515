package jobstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogsmith/internal/domain"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	client, err := ConnectMongo(context.Background(), uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	runStoreContract(t, func(t *testing.T) domain.JobStore {
		db := client.Database(fmt.Sprintf("blogsmith_test_%d", time.Now().UnixNano()))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		store := NewMongoStore(db)
		require.NoError(t, store.EnsureIndexes(context.Background()))
		return store
	})
}

func TestMongoPatchOnlySetsProvidedFields(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := mongoPatch(domain.Progress(20, "Generating title..."), now)

	assert.Equal(t, domain.JobStatusInProgress, set["status"])
	assert.Equal(t, 20, set["progress"])
	assert.Equal(t, "Generating title...", set["message"])
	assert.Equal(t, now, set["updatedAt"])
	_, hasTitle := set["title"]
	assert.False(t, hasTitle)
	_, hasImages := set["images"]
	assert.False(t, hasImages)
}
