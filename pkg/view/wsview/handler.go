// Package wsview serves the image view over a websocket.
//
// Each connection asks for one image. The connection gets its own looper that
// plays the UI thread and owns every write; the read side only listens for a
// cancel request or the peer going away.
package wsview

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"imagefetch/pkg/fetch"
	"imagefetch/pkg/logging"
	"imagefetch/pkg/mainthread"
	"imagefetch/pkg/task"
	"imagefetch/pkg/view"
)

const writeTimeout = 10 * time.Second

//go:embed index.html
var static embed.FS

// Handler upgrades requests to websockets and runs one fetch per connection.
type Handler struct {
	Fetcher task.Fetcher
	// Width and Height bound the images sent back; zero is unconstrained.
	Width, Height int
	// Fallback defaults to view.Placeholder.
	Fallback view.FallbackFunc
	Upgrader websocket.Upgrader
	// CloseTimeout bounds the wait for the peer to acknowledge the close that
	// follows "done". Defaults to 10s.
	CloseTimeout time.Duration
}

// NewMux serves a small test page at / and the socket at /fetch.
func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/fetch", h)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFileFS(w, r, static, "index.html")
	})
	return mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLogger(r.Context()).With("remote", r.RemoteAddr)

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	var req Message
	if err := conn.ReadJSON(&req); err != nil {
		logger.Debug("failed to read fetch request", "err", err)
		return
	}
	if req.Type != TypeFetch || req.URL == "" {
		writeMessage(conn, Message{Type: TypeDone, Status: fetch.StatusFailed.String(), Error: fmt.Sprintf("expected a %q message with a url", TypeFetch)})
		closeNormally(conn)
		return
	}

	ctx := logging.WithLogger(r.Context(), logger.With("url", req.URL))
	s := newSession(ctx, h, conn)
	s.serve(ctx, req.URL)
}

type session struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	ui      *mainthread.Looper
	fetcher task.Fetcher

	viewRef   *view.Ref[view.ImageView]
	dialogRef *view.Ref[view.ProgressDialog]
	binder    *view.Binder

	// finished is closed by the looper once "done" went out
	finished     chan struct{}
	closeTimeout time.Duration

	// usedFallback is only touched on the looper
	usedFallback bool
}

func newSession(ctx context.Context, h *Handler, conn *websocket.Conn) *session {
	s := &session{
		conn:    conn,
		logger:  logging.GetLogger(ctx),
		ui:      mainthread.New(),
		fetcher: h.Fetcher,

		finished:     make(chan struct{}),
		closeTimeout: h.CloseTimeout,
	}
	if s.closeTimeout <= 0 {
		s.closeTimeout = writeTimeout
	}
	if s.fetcher == nil {
		s.fetcher = task.FetcherFunc(fetch.Fetch)
	}
	s.viewRef = view.NewRef[view.ImageView](&socketView{s: s, width: h.Width, height: h.Height})
	s.dialogRef = view.NewRef[view.ProgressDialog](&socketDialog{s: s})
	s.binder = view.NewBinder(ctx, s.viewRef, s.dialogRef)

	fallback := h.Fallback
	if fallback == nil {
		fallback = view.Placeholder
	}
	s.binder.Fallback = func(w, h int) image.Image {
		s.usedFallback = true
		return fallback(w, h)
	}
	return s
}

func (s *session) serve(ctx context.Context, url string) {
	looperDone := make(chan struct{})
	go func() {
		defer close(looperDone)
		if err := s.ui.Run(context.WithoutCancel(ctx)); err != nil {
			s.logger.Debug("looper stopped", "err", err)
		}
	}()

	t := task.New(s.fetcher, s.ui, s)
	if err := t.Execute(ctx, url); err != nil {
		s.logger.Error("failed to start task", "err", err)
	}

	readDone := make(chan struct{})
	go s.closeAfterDone(readDone)

	for {
		var m Message
		if err := s.conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "err", err)
			}
			break
		}
		if m.Type == TypeCancel {
			s.logger.Info("cancel requested by client")
			t.Cancel()
		}
	}

	close(readDone)

	// Peer is gone or finished: tear down the host
	s.viewRef.Release()
	s.dialogRef.Release()
	t.Cancel()
	s.ui.Quit()
	<-looperDone
}

func (s *session) OnStart()               { s.binder.OnStart() }
func (s *session) OnProgress(percent int) { s.binder.OnProgress(percent) }

func (s *session) OnComplete(out fetch.Outcome) {
	s.binder.OnComplete(out)

	if _, alive := s.viewRef.Get(); !alive {
		return
	}
	msg := Message{Type: TypeDone, Status: out.Status.String()}
	if out.Err != nil {
		msg.Error = out.Err.Error()
	}
	s.send(msg)
	closeNormally(s.conn)
	close(s.finished)
}

// closeAfterDone drops the connection when the peer does not answer the close
// frame in time, which unblocks the read loop.
func (s *session) closeAfterDone(readDone <-chan struct{}) {
	select {
	case <-s.finished:
	case <-readDone:
		return
	}

	timer := time.NewTimer(s.closeTimeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		s.logger.Debug("peer did not acknowledge close")
		s.conn.Close()
	case <-readDone:
	}
}

func (s *session) send(m Message) {
	if err := writeMessage(s.conn, m); err != nil {
		s.logger.Debug("websocket write failed", "type", m.Type, "err", err)
	}
}

func writeMessage(conn *websocket.Conn, m Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(m)
}

func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}

type socketView struct {
	s             *session
	width, height int
}

func (v *socketView) Size() (int, int) { return v.width, v.height }

func (v *socketView) SetImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	b := img.Bounds()
	v.s.send(Message{
		Type:     TypeImage,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Fallback: v.s.usedFallback,
		PNG:      buf.Bytes(),
	})
	return nil
}

type socketDialog struct {
	s     *session
	shown bool
}

func (d *socketDialog) Show(title string) {
	d.shown = true
	d.s.send(Message{Type: TypeStart, Title: title})
}

func (d *socketDialog) SetProgress(percent int) {
	if !d.shown {
		return
	}
	d.s.send(Message{Type: TypeProgress, Percent: percent})
}

func (d *socketDialog) Dismiss() {
	d.shown = false
}
