package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/0xsj/overwatch-nickserv/internal/domain/event"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
)

type published struct {
	subject string
	data    []byte
}

type mockConn struct {
	msgs       []published
	flushes    int
	publishErr error
	flushErr   error
}

func (c *mockConn) Publish(subject string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.msgs = append(c.msgs, published{subject: subject, data: data})
	return nil
}

func (c *mockConn) FlushWithContext(ctx context.Context) error {
	c.flushes++
	return c.flushErr
}

func TestEventPublisher_Publish(t *testing.T) {
	t.Run("routes by event type", func(t *testing.T) {
		tests := []struct {
			evt     event.Event
			subject string
		}{
			{event.NewNickRegistered("alice", "alice_u"), "irc.nickserv.nick"},
			{event.NewNickReclaimed("alice", "old", "new"), "irc.nickserv.nick"},
			{event.NewNickActivated("alice", "alice_u"), "irc.nickserv.auth"},
			{event.NewNickAuthFailed("alice", "token mismatch"), "irc.nickserv.auth"},
		}

		for _, tt := range tests {
			t.Run(tt.evt.EventType(), func(t *testing.T) {
				conn := &mockConn{}
				pub := NewEventPublisher(conn, "")

				if err := pub.Publish(context.Background(), tt.evt); err != nil {
					t.Fatalf("Publish() error = %v", err)
				}
				if len(conn.msgs) != 1 {
					t.Fatalf("published %d messages, want 1", len(conn.msgs))
				}
				if conn.msgs[0].subject != tt.subject {
					t.Errorf("subject = %v, want %v", conn.msgs[0].subject, tt.subject)
				}
			})
		}
	})

	t.Run("envelope", func(t *testing.T) {
		conn := &mockConn{}
		pub := NewEventPublisher(conn, "net")
		evt := event.NewNickRegistered("alice", "alice_u")

		if err := pub.Publish(context.Background(), evt); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		var got struct {
			ID         string    `json:"id"`
			Type       string    `json:"type"`
			Nick       string    `json:"nick"`
			OccurredAt time.Time `json:"occurred_at"`
			Data       struct {
				Owner string `json:"owner"`
			} `json:"data"`
		}
		if err := json.Unmarshal(conn.msgs[0].data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if conn.msgs[0].subject != "net.nickserv.nick" {
			t.Errorf("subject = %v, want net.nickserv.nick", conn.msgs[0].subject)
		}
		if got.ID != evt.EventID().String() {
			t.Errorf("id = %v, want %v", got.ID, evt.EventID())
		}
		if got.Type != event.EventTypeNickRegistered {
			t.Errorf("type = %v, want %s", got.Type, event.EventTypeNickRegistered)
		}
		if got.Nick != "alice" {
			t.Errorf("nick = %v, want alice", got.Nick)
		}
		if got.Data.Owner != "alice_u" {
			t.Errorf("data owner = %v, want alice_u", got.Data.Owner)
		}
		if time.Since(got.OccurredAt) > time.Minute {
			t.Errorf("occurred_at = %v, want recent", got.OccurredAt)
		}
	})

	t.Run("publish error", func(t *testing.T) {
		conn := &mockConn{publishErr: errors.New("disconnected")}
		pub := NewEventPublisher(conn, "")

		if err := pub.Publish(context.Background(), event.NewNickActivated("alice", "u")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("publish all stops on error", func(t *testing.T) {
		conn := &mockConn{publishErr: errors.New("disconnected")}
		pub := NewEventPublisher(conn, "")

		err := pub.PublishAll(context.Background(), []event.Event{
			event.NewNickRegistered("a", "u"),
			event.NewNickRegistered("b", "u"),
		})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestMailRelay_Send(t *testing.T) {
	mail := notification.Mail{
		From:    "noreply@nano.li",
		To:      "alice@example.com",
		Subject: "NickServ Confirmation Email",
		Body:    "code",
	}

	t.Run("publishes and flushes", func(t *testing.T) {
		conn := &mockConn{}
		relay := NewMailRelay(conn, "")

		if err := relay.Send(context.Background(), mail); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if len(conn.msgs) != 1 || conn.msgs[0].subject != "irc.nickserv.mail" {
			t.Fatalf("messages = %+v, want one on irc.nickserv.mail", conn.msgs)
		}
		if conn.flushes != 1 {
			t.Errorf("flushes = %d, want 1", conn.flushes)
		}

		var got mailRequest
		if err := json.Unmarshal(conn.msgs[0].data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.To != mail.To || got.Body != mail.Body {
			t.Errorf("mail = %+v, want %+v", got, mail)
		}
	})

	t.Run("flush error", func(t *testing.T) {
		conn := &mockConn{flushErr: context.DeadlineExceeded}
		relay := NewMailRelay(conn, "")

		err := relay.Send(context.Background(), mail)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Send() error = %v, want DeadlineExceeded", err)
		}
	})
}
