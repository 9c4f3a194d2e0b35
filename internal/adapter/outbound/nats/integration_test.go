//go:build integration

package nats_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	natsadapter "github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/nats"
	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
)

var testConn *nats.Conn

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Printf("failed to start nats container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Printf("failed to get nats host: %v\n", err)
		container.Terminate(ctx)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "4222")
	if err != nil {
		fmt.Printf("failed to get nats port: %v\n", err)
		container.Terminate(ctx)
		os.Exit(1)
	}

	conn, err := nats.Connect(fmt.Sprintf("nats://%s:%s", host, port.Port()))
	if err != nil {
		fmt.Printf("failed to connect to nats: %v\n", err)
		container.Terminate(ctx)
		os.Exit(1)
	}
	testConn = conn

	code := m.Run()

	conn.Close()
	container.Terminate(ctx)

	os.Exit(code)
}

func TestMailRelay_RoundTrip(t *testing.T) {
	sub, err := testConn.SubscribeSync("itest.nickserv.mail")
	if err != nil {
		t.Fatalf("SubscribeSync() error = %v", err)
	}
	defer sub.Unsubscribe()

	relay := natsadapter.NewMailRelay(testConn, "itest")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := relay.Send(ctx, notification.Mail{To: "alice@example.com", Body: "code"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}

	var got struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.To != "alice@example.com" || got.Body != "code" {
		t.Errorf("mail = %+v", got)
	}
}

func TestEventPublisher_RoundTrip(t *testing.T) {
	sub, err := testConn.SubscribeSync("itest.nickserv.>")
	if err != nil {
		t.Fatalf("SubscribeSync() error = %v", err)
	}
	defer sub.Unsubscribe()

	pub := natsadapter.NewEventPublisher(testConn, "itest")
	if err := pub.Publish(context.Background(), event.NewNickActivated("alice", "alice_u")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	if msg.Subject != "itest.nickserv.auth" {
		t.Errorf("subject = %v, want itest.nickserv.auth", msg.Subject)
	}
}
