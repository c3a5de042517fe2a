// Package live serves the bookmarks page's live connection: one WebSocket per
// browser tab, backed by one reconcile.Reconciler that merges the initial
// snapshot, the tab's own confirmed actions and the owner's change feed.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/feed"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	"github.com/sweedalp/smart-bookmark-app/internal/metrics"
	"github.com/sweedalp/smart-bookmark-app/internal/reconcile"
)

// Service is the bookmark write path used by a view.
type Service interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Bookmark, error)
	Create(ctx context.Context, id domain.Identity, title, rawURL string) (domain.Bookmark, error)
	Delete(ctx context.Context, id domain.Identity, bookmarkID string) error
}

// Config tunes a view's connection handling.
type Config struct {
	PingInterval   time.Duration // keepalive ping period
	ReadTimeout    time.Duration // drop a peer silent for this long
	WriteTimeout   time.Duration // per-message write deadline
	SendBuffer     int           // queued outbound messages before the peer is dropped
	MaxMessageSize int64         // largest accepted client message
	MaxInFlight    int           // concurrent store calls per view
}

// DefaultConfig returns the settings used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		ReadTimeout:    75 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBuffer:     32,
		MaxMessageSize: 16 << 10,
		MaxInFlight:    4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = d.MaxInFlight
	}
	return c
}

var (
	errPeerClosed   = errors.New("peer closed connection")
	errSlowConsumer = errors.New("peer not reading")
	errUnknownOp    = errors.New("unknown operation")
)

// action is one unit of work for the event loop.
type action struct {
	event reconcile.Event
	ref   string
	op    string
	err   error // failed local operation; state stays unchanged
}

// View is one mounted live view.
type View struct {
	id       string
	identity domain.Identity
	conn     *websocket.Conn
	svc      Service
	feed     feed.Feed
	registry *Registry
	cfg      Config
	log      logger.Logger

	rec      *reconcile.Reconciler
	inbox    chan action
	outbox   chan any
	loopDone chan struct{}
	ops      errgroup.Group
}

// NewView prepares a view for an upgraded connection.
func NewView(conn *websocket.Conn, id domain.Identity, svc Service, f feed.Feed, registry *Registry, cfg Config, log logger.Logger) *View {
	cfg = cfg.withDefaults()
	viewID := uuid.NewString()
	v := &View{
		id:       viewID,
		identity: id,
		conn:     conn,
		svc:      svc,
		feed:     f,
		registry: registry,
		cfg:      cfg,
		log: log.With(
			logger.String("view_id", viewID),
			logger.String("owner", id.UserID)),
		rec:      reconcile.New(id.UserID),
		inbox:    make(chan action),
		outbox:   make(chan any, cfg.SendBuffer),
		loopDone: make(chan struct{}),
	}
	v.ops.SetLimit(cfg.MaxInFlight)
	return v
}

// ID returns the view's registry ID.
func (v *View) ID() string { return v.id }

// Run mounts the view and blocks until the peer disconnects or ctx is done.
//
// Teardown order: the feed subscription is closed first, then the event
// loop stops, then the socket is closed, then the view is unregistered.
func (v *View) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Register before any I/O so a shutdown during mount still reaches us.
	v.registry.Add(ViewInfo{ID: v.id, Owner: v.identity.UserID, MountedAt: time.Now()}, cancel)
	defer v.registry.Remove(v.id)

	// Subscribe before loading the snapshot so no change between the two
	// is missed. Duplicates are absorbed by the reconciler.
	var sub feed.Subscription
	if v.feed != nil {
		s, err := v.feed.Subscribe(ctx, feed.Filter{Owner: v.identity.UserID})
		if err != nil {
			v.log.Warn("live updates unavailable, continuing without feed", logger.Error(err))
		} else {
			sub = s
		}
	}
	closeFeed := func() {
		if sub != nil {
			_ = sub.Close()
		}
	}

	records, err := v.svc.List(ctx, v.identity)
	if err != nil {
		closeFeed()
		if ctx.Err() != nil {
			_ = v.conn.Close()
			return nil
		}
		v.writeNow(errorMessage{Type: TypeError, Message: "Could not load bookmarks. Reload the page to try again."})
		_ = v.conn.Close()
		return err
	}
	v.rec.Seed(records)
	metrics.RecordReconcile(reconcile.KindSeed.String(), reconcile.Applied.String())

	v.log.Debug("live view mounted", logger.Int("bookmarks", v.rec.Len()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.eventLoop(gctx) })
	g.Go(func() error { return v.readLoop(gctx) })
	g.Go(func() error { return v.writeLoop(gctx) })
	g.Go(func() error { return v.forwardFeed(gctx, sub) })
	g.Go(func() error {
		<-gctx.Done()
		closeFeed()
		<-v.loopDone
		return v.conn.Close()
	})

	err = g.Wait()
	_ = v.ops.Wait()

	v.log.Debug("live view unmounted")
	if errors.Is(err, errPeerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ─────────────────────────────────────────────────────────────
// Event loop
// ─────────────────────────────────────────────────────────────

// eventLoop is the only goroutine touching the reconciler.
func (v *View) eventLoop(ctx context.Context) error {
	defer close(v.loopDone)

	if err := v.send(newSnapshot(v.rec.Bookmarks())); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-v.inbox:
			if err := v.apply(a); err != nil {
				return err
			}
		}
	}
}

func (v *View) apply(a action) error {
	if a.err != nil {
		return v.send(errorMessage{Type: TypeError, Ref: a.ref, Message: userMessage(a.op, a.err)})
	}

	out := v.rec.Apply(a.event)
	metrics.RecordReconcile(a.event.Kind.String(), out.String())
	if out == reconcile.Rejected {
		v.log.Warn("discarded feed event for another owner", logger.String("kind", a.event.Kind.String()))
	}

	if out == reconcile.Applied {
		if err := v.send(newSnapshot(v.rec.Bookmarks())); err != nil {
			return err
		}
	}
	if a.ref != "" {
		return v.send(ackMessage{Type: TypeAck, Ref: a.ref})
	}
	return nil
}

// send queues msg for the writer without blocking the loop.
func (v *View) send(msg any) error {
	select {
	case v.outbox <- msg:
		return nil
	default:
		v.log.Warn("dropping slow live view")
		return errSlowConsumer
	}
}

func (v *View) post(ctx context.Context, a action) {
	select {
	case v.inbox <- a:
	case <-ctx.Done():
	}
}

// ─────────────────────────────────────────────────────────────
// Socket
// ─────────────────────────────────────────────────────────────

func (v *View) readLoop(ctx context.Context) error {
	v.conn.SetReadLimit(v.cfg.MaxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(v.cfg.ReadTimeout))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(v.cfg.ReadTimeout))
	})

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return errPeerClosed
			}
			return err
		}
		_ = v.conn.SetReadDeadline(time.Now().Add(v.cfg.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			v.post(ctx, action{op: "decode", err: err})
			continue
		}
		v.handle(ctx, msg)
	}
}

// handle starts the store call for a client operation. The result is posted
// back to the event loop; only confirmed results reach the reconciler.
func (v *View) handle(ctx context.Context, msg ClientMessage) {
	switch msg.Op {
	case OpCreate:
		v.ops.Go(func() error {
			b, err := v.svc.Create(ctx, v.identity, msg.Title, msg.URL)
			if err != nil {
				v.post(ctx, action{op: OpCreate, ref: msg.Ref, err: err})
				return nil
			}
			v.post(ctx, action{op: OpCreate, ref: msg.Ref, event: reconcile.LocalCreate(b)})
			return nil
		})

	case OpDelete:
		v.ops.Go(func() error {
			if err := v.svc.Delete(ctx, v.identity, msg.ID); err != nil {
				v.post(ctx, action{op: OpDelete, ref: msg.Ref, err: err})
				return nil
			}
			v.post(ctx, action{op: OpDelete, ref: msg.Ref, event: reconcile.LocalDelete(msg.ID)})
			return nil
		})

	default:
		v.post(ctx, action{op: msg.Op, ref: msg.Ref, err: errUnknownOp})
	}
}

func (v *View) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(v.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = v.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(v.cfg.WriteTimeout))
			return nil

		case msg := <-v.outbox:
			_ = v.conn.SetWriteDeadline(time.Now().Add(v.cfg.WriteTimeout))
			if err := v.conn.WriteJSON(msg); err != nil {
				return err
			}

		case <-ticker.C:
			if err := v.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(v.cfg.WriteTimeout)); err != nil {
				return err
			}
		}
	}
}

// writeNow writes a single message outside the writer goroutine. Only used
// before the writer starts.
func (v *View) writeNow(msg any) {
	_ = v.conn.SetWriteDeadline(time.Now().Add(v.cfg.WriteTimeout))
	_ = v.conn.WriteJSON(msg)
}

// ─────────────────────────────────────────────────────────────
// Feed
// ─────────────────────────────────────────────────────────────

func (v *View) forwardFeed(ctx context.Context, sub feed.Subscription) error {
	if sub == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				if ctx.Err() == nil {
					v.log.Warn("change feed closed, live updates stopped")
				}
				return nil
			}
			if re, ok := toReconcileEvent(ev); ok {
				v.post(ctx, action{event: re})
			}
		}
	}
}

func toReconcileEvent(ev feed.Event) (reconcile.Event, bool) {
	switch {
	case ev.Type == feed.Insert && ev.New != nil:
		return reconcile.RemoteInsert(*ev.New), true
	case ev.Type == feed.Delete && ev.Old != nil:
		return reconcile.RemoteDelete(ev.Old.ID), true
	default:
		return reconcile.Event{}, false
	}
}

// userMessage turns a failed operation into the inline message shown to the
// user. Store errors are not exposed.
func userMessage(op string, err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message()
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Your session has ended. Sign in again."
	case errors.Is(err, errUnknownOp):
		return "Unsupported action."
	case op == OpCreate:
		return "Could not save the bookmark. Please try again."
	case op == OpDelete:
		return "Could not delete the bookmark. Please try again."
	default:
		return "Could not read the request."
	}
}
