package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startTestNATSServer starts an embedded NATS server on a random port.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()

	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestNewNATSNotifier_RequiresConnection(t *testing.T) {
	_, err := NewNATSNotifier(nil, zap.NewNop())
	require.Error(t, err)
}

func TestNATSNotifier_Publish(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("maturityd.event.decision_resolved")
	require.NoError(t, err)

	n, err := NewNATSNotifier(nc, zap.NewNop())
	require.NoError(t, err)

	err = n.Publish(context.Background(), Event{
		Type:      EventDecisionResolved,
		ProjectID: "proj-1",
		GateID:    "gate-1",
		Actor:     "lead@initech.example",
		FromState: "MVP-L3",
		ToState:   "PILOT-L1",
	})
	require.NoError(t, err)

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, EventDecisionResolved, got.Type)
	assert.Equal(t, "proj-1", got.ProjectID)
	assert.Equal(t, "PILOT-L1", got.ToState)
	assert.False(t, got.Timestamp.IsZero())
}

func TestNATSNotifier_Publish_RequiresType(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	n, err := NewNATSNotifier(nc, zap.NewNop())
	require.NoError(t, err)

	err = n.Publish(context.Background(), Event{ProjectID: "p"})
	assert.Error(t, err)
}

func TestNATSNotifier_SubjectPerType(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("maturityd.event.>")
	require.NoError(t, err)

	n, err := NewNATSNotifier(nc, zap.NewNop())
	require.NoError(t, err)

	types := []EventType{
		EventDecisionGateOpened,
		EventPaymentGateOpened,
		EventPaymentConfirmed,
		EventTransitionCompleted,
		EventGateExpired,
		EventGateCancelled,
	}
	for _, et := range types {
		require.NoError(t, n.Publish(context.Background(), Event{Type: et, ProjectID: "p"}))
	}

	for _, et := range types {
		msg, err := sub.NextMsg(2 * time.Second)
		require.NoError(t, err)
		assert.Equal(t, "maturityd.event."+string(et), msg.Subject)
	}
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	assert.NoError(t, n.Publish(context.Background(), Event{Type: EventGateExpired}))
}
