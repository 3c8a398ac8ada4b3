// Package session implements the realtime voice conversation with a
// provisioned agent: a duplex WebSocket carrying JSON frames, a
// microphone capture pipeline, and a strictly sequential inbound audio
// playback pipeline with a running transcript.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jronit/playai-book-reader/pkg/audioio"
)

const (
	defaultSocketURL        = "wss://api.play.ai/v1/talk"
	defaultHandshakeTimeout = 10 * time.Second
	defaultReconnectDelay   = time.Second

	// Tone-shaping shelf applied during the half-rate drain.
	shelfFreq   = 1000.0
	shelfGainDB = 6.0
)

// State represents the session lifecycle state.
type State int

const (
	// StateIdle indicates no active session.
	StateIdle State = iota
	// StateConnecting indicates the socket is being established.
	StateConnecting
	// StateOpen indicates an active connection.
	StateOpen
	// StateRecording indicates microphone audio is being sent.
	StateRecording
	// StateReconnecting indicates a reconnect is scheduled or in flight.
	StateReconnecting
	// StateClosed indicates the socket closed terminally.
	StateClosed
)

// String returns a human-readable session state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateRecording:
		return "recording"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session owns the duplex socket to the voice-agent service.
//
// Lifecycle: Idle → Connecting → Open → (Recording) → Closed, with a
// Reconnecting sub-path after abnormal closure. Stop is the only way
// back to Idle and is safe from any state.
type Session struct {
	apiKey           string
	userID           string
	socketURL        string
	handshakeTimeout time.Duration
	reconnectDelay   time.Duration
	logger           *slog.Logger

	sink     audioio.Sink
	recorder Recorder

	mu          sync.RWMutex
	conn        *websocket.Conn
	state       State
	agentID     string
	transcript  transcript
	draining    bool
	sinkStarted bool

	queue frameQueue

	// wmu serializes socket writes (setup, audioIn).
	wmu sync.Mutex

	onStatus     func(State)
	onTranscript func([]Turn)
	onError      func(err error)
}

// Option configures a Session.
type Option func(*Session)

// WithAPIKey sets the credential sent inside the setup message.
func WithAPIKey(key string) Option {
	return func(s *Session) {
		s.apiKey = key
	}
}

// WithUserID sets the account user ID sent inside the setup message.
func WithUserID(id string) Option {
	return func(s *Session) {
		s.userID = id
	}
}

// WithSocketURL overrides the default agent socket base URL.
func WithSocketURL(url string) Option {
	return func(s *Session) {
		s.socketURL = url
	}
}

// WithRecorder sets the microphone recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithReconnectDelay overrides the fixed delay before a reconnect.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Session) {
		s.reconnectDelay = d
	}
}

// WithHandshakeTimeout sets the WebSocket dial timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.handshakeTimeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session playing agent audio into sink.
func NewSession(sink audioio.Sink, opts ...Option) (*Session, error) {
	s := &Session{
		socketURL:        defaultSocketURL,
		handshakeTimeout: defaultHandshakeTimeout,
		reconnectDelay:   defaultReconnectDelay,
		logger:           slog.Default(),
		sink:             sink,
		state:            StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	s.logger = s.logger.With("component", "session")
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AgentID returns the active agent id, empty when idle.
func (s *Session) AgentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentID
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.snapshot()
}

// OnStatus sets the state-change callback.
func (s *Session) OnStatus(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = fn
}

// OnTranscript sets the transcript-change callback.
func (s *Session) OnTranscript(fn func([]Turn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTranscript = fn
}

// OnError sets the error callback.
func (s *Session) OnError(fn func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Connect opens the duplex socket for the given agent and sends the
// setup message. The session must be idle or closed.
func (s *Session) Connect(ctx context.Context, agentID string) error {
	if agentID == "" {
		return ErrMissingAgentID
	}

	s.mu.Lock()
	switch s.state {
	case StateIdle, StateClosed:
	default:
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateConnecting
	s.agentID = agentID
	s.mu.Unlock()
	s.emitStatus(StateConnecting)

	if err := s.dial(ctx, agentID); err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.agentID = ""
		s.mu.Unlock()
		s.emitStatus(StateIdle)
		return err
	}
	return nil
}

// dial establishes the socket, sends one setup message, and starts the
// read loop. Shared by Connect and the reconnect path.
func (s *Session) dial(ctx context.Context, agentID string) error {
	wsURL := fmt.Sprintf("%s/%s", strings.TrimRight(s.socketURL, "/"), agentID)

	dialer := websocket.Dialer{HandshakeTimeout: s.handshakeTimeout}

	s.logger.Info("connecting to agent socket", "agent_id", agentID)

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return NewConnectionError(
				fmt.Sprintf("dial failed with status %d", resp.StatusCode),
				err,
				resp.StatusCode >= 500,
			)
		}
		return NewConnectionError("dial failed", err, true)
	}

	s.mu.Lock()
	if !s.sinkStarted {
		if err := s.sink.Start(context.Background()); err != nil {
			s.mu.Unlock()
			conn.Close()
			return fmt.Errorf("session: start audio sink: %w", err)
		}
		s.sinkStarted = true
	}
	s.mu.Unlock()

	if err := s.sendSetup(conn); err != nil {
		conn.Close()
		return err
	}

	s.mu.Lock()
	if s.state == StateIdle {
		// Stop ran while the dial was in flight.
		s.mu.Unlock()
		conn.Close()
		return NewConnectionError("session stopped during connect", nil, false)
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	go s.readLoop(conn)

	s.emitStatus(StateOpen)
	s.logger.Info("agent socket open", "agent_id", agentID)

	return nil
}

// sendSetup writes the single setup frame declaring the audio format
// contract. Sent exactly once per (re)connection, before any audio.
func (s *Session) sendSetup(conn *websocket.Conn) error {
	msg := setupMessage{
		Type:              "setup",
		APIKey:            s.apiKey,
		UserID:            s.userID,
		OutputFormat:      "raw",
		OutputSampleRate:  outputSampleRate,
		OutputBitDepth:    outputBitDepth,
		OutputChannels:    outputChannels,
		InputEncoding:     "media-container",
		TimeoutSeconds:    60,
		NoActivityTimeout: 60,
		SilenceThreshold:  -50,
		KeepAlive:         true,
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if err := conn.WriteJSON(msg); err != nil {
		return NewConnectionError("send setup failed", err, true)
	}
	return nil
}

// StartRecording begins sending microphone chunks as audioIn frames.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	if s.recorder == nil {
		s.mu.Unlock()
		return ErrNoRecorder
	}
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrNotConnected
	}
	recorder := s.recorder
	s.mu.Unlock()

	chunks, err := recorder.Start(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateRecording
	s.mu.Unlock()
	s.emitStatus(StateRecording)

	go s.sendLoop(chunks)
	return nil
}

// StopRecording halts the recorder, leaving the socket open.
func (s *Session) StopRecording() {
	s.mu.Lock()
	recorder := s.recorder
	wasRecording := s.state == StateRecording
	if wasRecording {
		s.state = StateOpen
	}
	s.mu.Unlock()

	if recorder != nil {
		_ = recorder.Stop()
	}
	if wasRecording {
		s.emitStatus(StateOpen)
	}
}

// sendLoop forwards recorder chunks over the socket until the channel
// closes.
func (s *Session) sendLoop(chunks <-chan []byte) {
	for chunk := range chunks {
		s.sendAudio(chunk)
	}
}

// sendAudio sends one audioIn frame. Chunks produced while the socket
// is not open are dropped silently; nothing buffers across a closed
// socket.
func (s *Session) sendAudio(chunk []byte) {
	s.mu.RLock()
	conn := s.conn
	state := s.state
	s.mu.RUnlock()

	if conn == nil || (state != StateOpen && state != StateRecording) {
		return
	}

	msg := audioInMessage{
		Type: "audioIn",
		Data: base64.StdEncoding.EncodeToString(chunk),
	}

	s.wmu.Lock()
	err := conn.WriteJSON(msg)
	s.wmu.Unlock()

	if err != nil {
		s.logger.Debug("dropped audio chunk", "error", err)
	}
}

// readLoop processes inbound frames until the socket errors or closes.
func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(conn, err)
			return
		}

		msg, err := parseServerMessage(data)
		if err != nil {
			s.logger.Warn("failed to parse message", "error", err)
			continue
		}

		s.dispatch(msg)
	}
}

// dispatch routes one inbound frame by its type discriminator.
func (s *Session) dispatch(msg serverMessage) {
	switch msg.Type {
	case typeAudioStream:
		if msg.Data == "" {
			return
		}
		samples, err := decodePCM(msg.Data)
		if err != nil {
			s.logger.Warn("invalid audio payload, skipping", "error", err)
			return
		}
		s.queue.Push(samples)
		s.kickDrain()

	case typeNewAudioStream:
		// Fresh utterance: flush everything queued and in flight.
		s.queue.Clear()
		if err := s.sink.Clear(); err != nil {
			s.logger.Warn("sink clear failed", "error", err)
		}

	case typeVoiceActivityStart:
		s.mu.Lock()
		s.transcript.startUserTurn()
		turns := s.transcript.snapshot()
		s.mu.Unlock()
		s.emitTranscript(turns)

	case typeVoiceActivityEnd:
		// Boundary marker only.

	case typeUserTranscript:
		s.mu.Lock()
		s.transcript.setUserText(msg.Message)
		turns := s.transcript.snapshot()
		s.mu.Unlock()
		s.emitTranscript(turns)

	case typeAgentTranscript:
		s.mu.Lock()
		s.transcript.appendAgentText(msg.Message)
		turns := s.transcript.snapshot()
		s.mu.Unlock()
		s.emitTranscript(turns)

	case typeServerError:
		s.emitError(&ServerError{Message: msg.Message})

	default:
		s.logger.Debug("unhandled message type", "type", msg.Type)
	}
}

// kickDrain starts the drain loop if one is not already running.
func (s *Session) kickDrain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	go s.drainLoop()
}

// drainLoop plays queued chunks strictly in order, one at a time.
// Each chunk is peeked while playing and popped only on completion, so
// a barge-in clear also discards the in-flight head. Chunks are
// written at half the nominal rate with a low-shelf boost compensating
// the pitch-darkening of slowed playback. A failed chunk is popped and
// the loop continues.
func (s *Session) drainLoop() {
	filter := newLowShelf(shelfFreq, shelfGainDB, outputSampleRate)

	for {
		samples, epoch, ok := s.queue.Peek()
		if !ok {
			s.mu.Lock()
			if s.queue.Len() == 0 {
				s.draining = false
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			continue
		}

		chunk := audioio.Chunk{
			Samples:    filter.process(samples),
			SampleRate: outputSampleRate / 2,
			Channels:   outputChannels,
		}
		if err := s.sink.Write(context.Background(), chunk); err != nil {
			s.logger.Warn("chunk playback failed, skipping", "error", err)
		}

		s.queue.Pop(epoch)
	}
}

// handleDisconnect reacts to a read-loop exit. Abnormal closure with an
// active agent id schedules exactly one reconnect after a fixed delay;
// any other close code is terminal for the socket.
func (s *Session) handleDisconnect(conn *websocket.Conn, err error) {
	s.mu.Lock()
	if s.conn != conn {
		// Stop or a reconnect already superseded this socket.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	agentID := s.agentID

	if isAbnormalClosure(err) && agentID != "" {
		s.state = StateReconnecting
		delay := s.reconnectDelay
		s.mu.Unlock()

		s.logger.Warn("connection lost, scheduling reconnect",
			"agent_id", agentID,
			"delay", delay,
			"error", err,
		)
		s.emitStatus(StateReconnecting)
		s.emitError(NewConnectionError("connection lost, reconnecting", err, true))

		time.AfterFunc(delay, func() {
			s.reconnect(agentID)
		})
		return
	}

	s.state = StateClosed
	s.mu.Unlock()

	s.logger.Info("agent socket closed", "error", err)
	s.emitStatus(StateClosed)
	if !isNormalClosure(err) {
		s.emitError(NewConnectionError("connection closed", err, false))
	}
}

// reconnect is the single retry attempt for one disconnect event.
func (s *Session) reconnect(agentID string) {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != StateReconnecting {
		// Stop ran while the reconnect was pending.
		return
	}

	if err := s.dial(context.Background(), agentID); err != nil {
		s.mu.Lock()
		if s.state == StateReconnecting {
			s.state = StateClosed
		}
		s.mu.Unlock()
		s.emitStatus(StateClosed)
		s.emitError(err)
	}
}

// Stop tears the session down: socket, recorder, queued audio,
// in-flight playback, transcript, and agent id. It is the only path
// back to Idle and is idempotent from any state.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	s.conn = nil
	recorder := s.recorder
	s.agentID = ""
	s.state = StateIdle
	s.transcript.reset()
	s.mu.Unlock()

	if recorder != nil {
		_ = recorder.Stop()
	}

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
		conn.Close()
	}

	s.queue.Clear()
	if err := s.sink.Clear(); err != nil {
		s.logger.Warn("sink clear failed", "error", err)
	}

	s.logger.Info("session stopped")
	s.emitStatus(StateIdle)
	return nil
}

// Emit helpers

func (s *Session) emitStatus(state State) {
	s.mu.RLock()
	fn := s.onStatus
	s.mu.RUnlock()
	if fn != nil {
		fn(state)
	}
}

func (s *Session) emitTranscript(turns []Turn) {
	s.mu.RLock()
	fn := s.onTranscript
	s.mu.RUnlock()
	if fn != nil {
		fn(turns)
	}
}

func (s *Session) emitError(err error) {
	s.mu.RLock()
	fn := s.onError
	s.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// isAbnormalClosure reports whether the read error corresponds to an
// abnormal closure (1006): either the explicit close code or a raw
// transport error with no close frame at all.
func isAbnormalClosure(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code == websocket.CloseAbnormalClosure
	}
	// No close frame was received; the peer vanished.
	return true
}

// isNormalClosure reports whether the peer closed cleanly.
func isNormalClosure(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
	)
}
