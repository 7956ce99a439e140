package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/engine"
)

// setupRedis starts a Redis container and returns its address.
func setupRedis(t *testing.T) (string, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return host + ":" + port.Port(), func() { _ = container.Terminate(ctx) }
}

func layoutUpdate(changed bool) *engine.Update {
	w := 1.0
	return &engine.Update{
		TradeID:       "trade-1",
		LayoutChanged: changed,
		Layout: domain.LayoutResult{
			WalletNodes: []domain.LayoutNode{{ID: "wallet-1", Label: "wall..et-1", X: 1, Y: 0, Type: domain.NodeTypeWallet}},
			TokenNodes:  []domain.LayoutNode{{ID: "token-1", Label: "toke..en-1", X: 0, Y: 0, Type: domain.NodeTypeToken, Weight: &w}},
			Edges:       []domain.LayoutEdge{{Source: "wallet-1", Target: "token-1"}},
		},
		Holders:     []domain.TokenHolderStats{{Token: "token-1", Connections: 1, Total: 2}},
		ProcessedAt: time.UnixMilli(1700000000000),
	}
}

func TestNewRedisPublisher_RequiresAddr(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestRedisPublisher_PublishAndLatest(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	pub, err := NewRedisPublisher(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer pub.Close()

	assert.Equal(t, "redis", pub.Name())

	_, err = pub.Latest(ctx)
	assert.True(t, errors.Is(err, redis.Nil))

	// Subscribe before publishing so the message is not missed.
	sub := redis.NewClient(&redis.Options{Addr: addr})
	defer sub.Close()
	ps := sub.Subscribe(ctx, "walletmap:layout")
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, layoutUpdate(true)))

	got, err := pub.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "trade-1", got.TradeID)
	assert.Equal(t, int64(1700000000000), got.ProcessedAt)
	require.Len(t, got.Layout.TokenNodes, 1)
	assert.Equal(t, 1.0, *got.Layout.TokenNodes[0].Weight)
	assert.Len(t, got.Layout.Edges, 1)

	select {
	case msg := <-ps.Channel():
		var decoded Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
		assert.Equal(t, "trade-1", decoded.TradeID)
		assert.Len(t, decoded.Holders, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no message on channel")
	}
}

func TestRedisPublisher_SkipsUnchangedLayout(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	pub, err := NewRedisPublisher(ctx, RedisConfig{Addr: addr, Key: "test:layout"})
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(ctx, layoutUpdate(false)))

	_, err = pub.Latest(ctx)
	assert.True(t, errors.Is(err, redis.Nil))
}
