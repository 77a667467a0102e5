package http

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/formwork/pkg/tools"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	wsBufferSize   = 1024
	// maxLineSize splits longer output lines across several frames.
	maxLineSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ToolMessage is one frame sent to a client attached to a tool.
type ToolMessage struct {
	Type     string `json:"type"` // stdout, stderr or exit
	Data     string `json:"data,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

// AttachTool handles GET /ws/{toolID}: it takes the tool from the
// controller, forwards its output line by line and writes client text
// frames to its stdin. The socket closes after the exit frame.
func (s *Server) AttachTool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "toolID")
	if _, err := tools.ParseID(id); err != nil {
		writeError(w, s.logger, errors.Join(tools.ErrNotFound, err))
		return
	}
	tool, err := s.tools.Take(id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", "tool_id", id, "err", err)
		_ = tool.Kill()
		_ = tool.Wait()
		return
	}
	s.logger.Info("Tool attached", "tool_id", id)

	a := &attachment{conn: conn, tool: tool}
	a.run()
}

type attachment struct {
	conn    *websocket.Conn
	tool    *tools.SpawnedTool
	writeMu sync.Mutex
}

func (a *attachment) run() {
	defer func() { _ = a.conn.Close() }()

	a.conn.SetReadLimit(maxMessageSize)
	_ = a.conn.SetReadDeadline(time.Now().Add(pongWait))
	a.conn.SetPongHandler(func(string) error {
		_ = a.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go a.readInput()

	done := make(chan struct{})
	go a.ping(done)

	var streams sync.WaitGroup
	streams.Add(2)
	go a.forward("stdout", a.tool.Stdout, &streams)
	go a.forward("stderr", a.tool.Stderr, &streams)
	streams.Wait()

	code := 0
	var exitErr *exec.ExitError
	if err := a.tool.Wait(); errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	close(done)

	_ = a.send(ToolMessage{Type: "exit", ExitCode: code})
	a.writeMu.Lock()
	_ = a.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = a.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	a.writeMu.Unlock()
}

// forward sends r line by line until EOF. Output is drained to EOF even
// once the client is gone.
func (a *attachment) forward(kind string, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	reader := bufio.NewReaderSize(r, maxLineSize)
	for {
		line, err := reader.ReadSlice('\n')
		if len(line) > 0 {
			data := strings.TrimSuffix(strings.TrimSuffix(string(line), "\n"), "\r")
			_ = a.send(ToolMessage{Type: kind, Data: data})
		}
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return
		default:
			_, _ = io.Copy(io.Discard, r)
			return
		}
	}
}

// readInput copies client text frames to stdin. A client close, or any
// read error, closes stdin.
func (a *attachment) readInput() {
	defer func() { _ = a.tool.Stdin.Close() }()
	for {
		kind, message, err := a.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if _, err := a.tool.Stdin.Write(append(message, '\n')); err != nil {
			return
		}
	}
}

func (a *attachment) ping(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			a.writeMu.Lock()
			_ = a.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := a.conn.WriteMessage(websocket.PingMessage, nil)
			a.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (a *attachment) send(msg ToolMessage) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = a.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return a.conn.WriteJSON(msg)
}
