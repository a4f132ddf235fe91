package ws

import (
	"context"
	"testing"
	"time"

	"github.com/concordapp/concord-backend/internal/hub"
	"github.com/concordapp/concord-backend/internal/service"
)

type stubChat struct {
	msg *service.MessageRecord
	err error

	gotOp     string
	gotParent service.ParentRef
}

func (s *stubChat) Create(_ context.Context, parent service.ParentRef, _ string, _ string, _ []byte, _ string) (*service.MessageRecord, error) {
	s.gotOp, s.gotParent = "create", parent
	return s.msg, s.err
}

func (s *stubChat) Edit(_ context.Context, parent service.ParentRef, _ uint64, _ string, _ string) (*service.MessageRecord, error) {
	s.gotOp, s.gotParent = "edit", parent
	return s.msg, s.err
}

func (s *stubChat) Delete(_ context.Context, parent service.ParentRef, _ uint64, _ string) (*service.MessageRecord, error) {
	s.gotOp, s.gotParent = "delete", parent
	return s.msg, s.err
}

func (s *stubChat) Page(context.Context, uint64, string) (*service.MessagePage, error) {
	return nil, nil
}

func drainResponse(t *testing.T, responses chan Outbound) Outbound {
	t.Helper()
	select {
	case out := <-responses:
		return out
	case <-time.After(time.Second):
		t.Fatal("no response frame")
		return Outbound{}
	}
}

func TestDispatchSubscribeRoutesFanout(t *testing.T) {
	h := hub.New()
	g := NewGateway(h, &stubChat{}, &stubChat{})
	client := hub.NewClient("s1", 8)
	responses := make(chan Outbound, 8)

	g.dispatch(context.Background(), client, responses, "alice", Inbound{Op: "subscribe", ChannelID: 7})
	if out := drainResponse(t, responses); out.Op != "ack" {
		t.Fatalf("frame = %+v, want ack", out)
	}

	h.Publish(service.TopicMessages(7), "created")
	h.Publish(service.TopicMessageUpdates(7), "updated")
	h.Publish(service.TopicMessages(8), "other parent")

	for _, want := range []string{service.TopicMessages(7), service.TopicMessageUpdates(7)} {
		select {
		case ev := <-client.Send:
			if ev.Topic != want {
				t.Fatalf("topic = %q, want %q", ev.Topic, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event on %s", want)
		}
	}
	select {
	case ev := <-client.Send:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestDispatchMutations(t *testing.T) {
	channels := &stubChat{msg: &service.MessageRecord{ID: 5}}
	directs := &stubChat{msg: &service.MessageRecord{ID: 6}}
	g := NewGateway(hub.New(), channels, directs)
	client := hub.NewClient("s1", 8)
	responses := make(chan Outbound, 8)
	ctx := context.Background()

	g.dispatch(ctx, client, responses, "alice", Inbound{Op: "message:create", ServerID: 1, ChannelID: 7, Content: "hi"})
	if out := drainResponse(t, responses); out.Op != "ack" {
		t.Fatalf("frame = %+v", out)
	}
	if channels.gotOp != "create" || channels.gotParent != (service.ParentRef{ID: 7, ServerID: 1}) {
		t.Fatalf("channel call = %s %+v", channels.gotOp, channels.gotParent)
	}

	g.dispatch(ctx, client, responses, "alice", Inbound{Op: "direct:delete", ConversationID: 42, MessageID: 6})
	if out := drainResponse(t, responses); out.Op != "ack" {
		t.Fatalf("frame = %+v", out)
	}
	if directs.gotOp != "delete" || directs.gotParent != (service.ParentRef{ID: 42}) {
		t.Fatalf("direct call = %s %+v", directs.gotOp, directs.gotParent)
	}
}

func TestDispatchErrorFrames(t *testing.T) {
	channels := &stubChat{err: service.ErrUnauthorized}
	g := NewGateway(hub.New(), channels, &stubChat{})
	client := hub.NewClient("s1", 8)
	responses := make(chan Outbound, 8)
	ctx := context.Background()

	g.dispatch(ctx, client, responses, "alice", Inbound{Op: "message:edit", ChannelID: 7, MessageID: 5, Content: "x"})
	if out := drainResponse(t, responses); out.Op != "error" || out.Code != "forbidden" {
		t.Fatalf("frame = %+v, want forbidden error", out)
	}

	g.dispatch(ctx, client, responses, "alice", Inbound{Op: "subscribe"})
	if out := drainResponse(t, responses); out.Op != "error" || out.Code != "bad_request" {
		t.Fatalf("frame = %+v, want bad_request error", out)
	}

	g.dispatch(ctx, client, responses, "alice", Inbound{Op: "nonsense"})
	if out := drainResponse(t, responses); out.Op != "error" || out.Code != "bad_request" {
		t.Fatalf("frame = %+v, want bad_request error", out)
	}
}
