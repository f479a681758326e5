package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"embed-service/internal/embeddings"
)

// Responder answers embedding requests published on a NATS subject. Members
// of the same queue group share the load.
type Responder struct {
	log      *slog.Logger
	nc       *nats.Conn
	embedder embeddings.Embedder
	timeout  time.Duration
}

// NewResponder constructs a NATS request/reply front end for embedder.
// A zero timeout leaves each request bounded only by the serving context.
func NewResponder(log *slog.Logger, nc *nats.Conn, embedder embeddings.Embedder, timeout time.Duration) *Responder {
	return &Responder{log: log, nc: nc, embedder: embedder, timeout: timeout}
}

// Serve subscribes until ctx is cancelled, then drains the subscription.
func (r *Responder) Serve(ctx context.Context, subject, group string) error {
	sub, err := r.nc.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		r.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.log.Info("nats responder listening", "subject", subject, "group", group)
	<-ctx.Done()
	return sub.Drain()
}

func (r *Responder) handleMessage(ctx context.Context, msg *nats.Msg) {
	id := msg.Header.Get(nats.MsgIdHdr)
	reply := r.process(ctx, id, msg.Data)
	if msg.Reply == "" {
		r.log.Warn("dropping embed request without reply subject", "id", reply.ID)
		return
	}
	body, err := json.Marshal(reply)
	if err != nil {
		r.log.Error("failed to encode reply", "id", reply.ID, "err", err)
		return
	}
	if err := msg.Respond(body); err != nil {
		r.log.Error("failed to respond", "id", reply.ID, "err", err)
	}
}

// process decodes one request and embeds it. It never returns an empty
// embedding without an error message.
func (r *Responder) process(ctx context.Context, id string, data []byte) Reply {
	if id == "" {
		id = uuid.NewString()
	}
	reply := Reply{ID: id}

	var text string
	if len(data) > 0 {
		var err error
		text, err = embeddings.ParseRequest(data)
		if err != nil {
			r.log.Warn("failed to decode embed request", "id", id, "err", err)
			reply.Error = "invalid request body"
			return reply
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	vec, err := r.embedder.Embed(ctx, text)
	if err == nil && len(vec) == 0 {
		err = embeddings.ErrEmptyEmbedding
	}
	if err != nil {
		r.log.Error("embedding failed", "id", id, "err", err)
		reply.Error = "embedding failed"
		return reply
	}
	reply.Embedding = vec
	r.log.Debug("embed request served", "id", id, "dim", len(vec), "duration_ms", time.Since(start).Milliseconds())
	return reply
}
