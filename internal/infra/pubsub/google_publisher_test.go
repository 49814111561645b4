package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"globalchek/internal/domain/service"

	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newFakePubSub(t *testing.T) (*pstest.Server, []option.ClientOption) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return srv, []option.ClientOption{option.WithGRPCConn(conn)}
}

func TestGooglePubSubPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	srv, opts := newFakePubSub(t)

	_, err := srv.GServer.CreateTopic(ctx, &pubsubpb.Topic{Name: "projects/demo/topics/verifications"})
	require.NoError(t, err)

	publisher, err := NewGooglePubSubPublisher(ctx, "demo", "verifications", discardLogger(), opts...)
	require.NoError(t, err)
	defer publisher.Close()

	event := submittedEvent()
	require.NoError(t, publisher.PublishVerificationSubmitted(ctx, event))

	messages := srv.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, event.VerificationID, messages[0].Attributes[attrVerificationID])
	assert.Equal(t, event.VerificationID, messages[0].OrderingKey)

	var decoded service.VerificationSubmittedEvent
	require.NoError(t, json.Unmarshal(messages[0].Data, &decoded))
	assert.Equal(t, event.Version, decoded.Version)
}

func TestGooglePubSubPublisher_MissingTopic(t *testing.T) {
	_, opts := newFakePubSub(t)

	_, err := NewGooglePubSubPublisher(context.Background(), "demo", "absent", discardLogger(), opts...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projects/demo/topics/absent")
}
