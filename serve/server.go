package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/dispatch"
	"github.com/Paranoid-AF/webterm/interp"
)

// Session is one interpreter as seen by the server.
type Session interface {
	Start(ctx context.Context) []webterm.Intent
	OnInput(line string) []webterm.Intent
	OnTab(line string, cursor int) []webterm.Intent
	Prepare(line string) interp.Submission
	Run(ctx context.Context, sub interp.Submission) (dispatch.Result, []webterm.Intent)
	Session() dispatch.Session
	Wait()
}

// SessionFactory creates the session for a new connection. sink receives
// intents the session produces on its own.
type SessionFactory func(ctx context.Context, sink func(webterm.Intent)) Session

// InterpreterFactory builds interpreters sharing opts. The Sink field is
// replaced per connection.
func InterpreterFactory(opts interp.Options) SessionFactory {
	return func(ctx context.Context, sink func(webterm.Intent)) Session {
		o := opts
		o.Sink = sink
		return interp.New(ctx, o)
	}
}

// Server listens on a Unix domain socket and, through ServeHTTP, on
// WebSocket upgrades. Every connection gets its own interpreter that lives
// as long as the connection.
type Server struct {
	listener net.Listener
	sockPath string
	factory  SessionFactory

	mu    sync.Mutex
	conns map[frameConn]context.CancelFunc
}

// NewServer creates a server bound to sockPath.
func NewServer(sockPath string, factory SessionFactory) (*Server, error) {
	if err := os.Remove(sockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		sockPath: sockPath,
		factory:  factory,
		conns:    make(map[frameConn]context.CancelFunc),
	}, nil
}

// Serve accepts socket connections until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(newLineConn(conn))
	}
}

// Close stops accepting, cancels every live session and removes the socket.
func (s *Server) Close() {
	s.listener.Close()
	s.mu.Lock()
	for conn, cancel := range s.conns {
		cancel()
		conn.Close()
	}
	s.mu.Unlock()
	os.Remove(s.sockPath)
}

// submitQueue bounds the submissions a connection may have waiting. A
// client that exceeds it stops being read until the queue drains.
const submitQueue = 32

type pendingSubmit struct {
	id  int
	sub interp.Submission
}

// connWriter serializes JSON frames onto a connection.
type connWriter struct {
	mu   sync.Mutex
	conn frameConn
}

func (w *connWriter) send(resp *webterm.BridgeResponse) {
	if resp.Intents == nil {
		resp.Intents = []webterm.Intent{}
	}
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}
	slog.Debug("response", "request_id", resp.RequestID, "intents", len(resp.Intents))

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteFrame(data); err != nil {
		slog.Debug("write failed", "error", err)
	}
}

func (s *Server) handleConn(conn frameConn) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conns[conn] = cancel
	s.mu.Unlock()

	log := slog.With("session", uuid.NewString())
	log.Info("session opened")

	out := &connWriter{conn: conn}
	sess := s.factory(ctx, func(it webterm.Intent) {
		out.send(&webterm.BridgeResponse{Intents: []webterm.Intent{it}})
	})

	// Submissions run one at a time in arrival order on their own
	// goroutine, so keystrokes keep flowing while a command waits on the
	// network.
	queue := make(chan pendingSubmit, submitQueue)
	worker := make(chan struct{})
	go func() {
		defer close(worker)
		for p := range queue {
			if ctx.Err() != nil {
				continue
			}
			res, intents := sess.Run(ctx, p.sub)
			if ctx.Err() != nil {
				continue
			}
			out.send(&webterm.BridgeResponse{
				RequestID: p.id,
				Intents:   intents,
				Result: &webterm.BridgeResult{
					Success:     res.Success,
					Message:     res.Message,
					Path:        sess.Session().CurrentPath,
					Suggestions: res.Suggestions,
				},
			})
		}
	}()

	defer func() {
		cancel()
		close(queue)
		<-worker
		sess.Wait()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		log.Info("session closed")
	}()

	out.send(&webterm.BridgeResponse{Intents: sess.Start(ctx)})

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Debug("connection closed", "error", err)
			}
			return
		}

		var req webterm.BridgeRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			log.Warn("invalid request", "error", err)
			out.send(&webterm.BridgeResponse{Error: &webterm.Error{Code: "invalid_request", Message: err.Error()}})
			continue
		}

		log.Debug("request", "request_id", req.RequestID, "type", req.Type)
		switch req.Type {
		case webterm.BridgeInput:
			out.send(&webterm.BridgeResponse{RequestID: req.RequestID, Intents: sess.OnInput(req.Line)})
		case webterm.BridgeTab:
			out.send(&webterm.BridgeResponse{RequestID: req.RequestID, Intents: sess.OnTab(req.Line, req.Cursor)})
		case webterm.BridgeSubmit:
			queue <- pendingSubmit{id: req.RequestID, sub: sess.Prepare(req.Line)}
		default:
			out.send(&webterm.BridgeResponse{
				RequestID: req.RequestID,
				Error:     &webterm.Error{Code: "unknown_type", Message: "unknown request type: " + req.Type},
			})
		}
	}
}
