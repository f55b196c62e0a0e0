package hl7v2

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// MLLPStartBlock is the MLLP start-of-message byte (VT / vertical tab).
	MLLPStartBlock = 0x0B

	// MLLPEndBlock is the MLLP end-of-message byte (FS / file separator).
	MLLPEndBlock = 0x1C

	// MLLPCarriageReturn is the trailing CR after the end block.
	MLLPCarriageReturn = 0x0D

	// mllpMaxMessageSize is the maximum buffer size for a single MLLP message (1 MB).
	mllpMaxMessageSize = 1 << 20

	// mllpReadTimeout is the read deadline applied to each connection.
	mllpReadTimeout = 30 * time.Second
)

// MessageHandler is called for each received HL7v2 message. It returns the
// ACK/NAK message to send back, or nil to send no response.
type MessageHandler func(msg *Message) *Message

// MLLPServer listens for HL7v2 messages over MLLP/TCP.
type MLLPServer struct {
	addr      string
	handler   MessageHandler
	parseOpts ParseOptions
	listener  net.Listener
	mu        sync.Mutex
	conns     map[net.Conn]struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	logger    zerolog.Logger
}

// NewMLLPServer creates an MLLP server that will listen on addr and
// dispatch parsed messages to handler.
func NewMLLPServer(addr string, handler MessageHandler, logger zerolog.Logger) *MLLPServer {
	return &MLLPServer{
		addr:    addr,
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// SetParseOptions configures how inbound messages are parsed. Call before
// Start; the options are read concurrently by connection handlers.
func (s *MLLPServer) SetParseOptions(opts ParseOptions) {
	s.parseOpts = opts
}

// Start begins listening for connections. It is non-blocking: the accept
// loop runs in a background goroutine.
func (s *MLLPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("mllp: failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()

	return nil
}

// Stop gracefully shuts down the server: it closes the listener, then all
// tracked connections, and waits for every goroutine to finish.
func (s *MLLPServer) Stop() error {
	close(s.done)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the listener address string, useful when the server was
// started on port 0.
func (s *MLLPServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *MLLPServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.logger.Error().Err(err).Msg("mllp accept error")
			return
		}

		s.trackConn(conn, true)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.trackConn(conn, false)
			defer conn.Close()
			s.handleConnection(conn)
		}()
	}
}

func (s *MLLPServer) trackConn(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// handleConnection reads MLLP-framed messages from conn, parses them,
// dispatches to the handler, and writes back any response.
func (s *MLLPServer) handleConnection(conn net.Conn) {
	buf := make([]byte, 0, 4096)
	readBuf := make([]byte, 4096)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(mllpReadTimeout))

		n, err := conn.Read(readBuf)
		if n > 0 {
			buf = append(buf, readBuf[:n]...)

			if len(buf) > mllpMaxMessageSize {
				s.logger.Warn().
					Str("remote", conn.RemoteAddr().String()).
					Msg("mllp message exceeds max size, closing connection")
				return
			}

			for {
				msgBytes, rest, found := UnframeMessage(buf)
				if !found {
					break
				}
				buf = rest

				s.processMessage(conn, msgBytes)
			}
		}

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				// Idle connection with nothing buffered: close. A partial
				// frame keeps the read loop going.
				if len(buf) == 0 {
					return
				}
				continue
			}
			return
		}
	}
}

func (s *MLLPServer) processMessage(conn net.Conn, raw []byte) {
	msg, err := ParseWithOptions(raw, s.parseOpts)
	if err != nil {
		s.logger.Error().Err(err).
			Str("remote", conn.RemoteAddr().String()).
			Msg("mllp parse error")
		return
	}

	resp := s.handler(msg)
	if resp == nil {
		return
	}

	framed := FrameMessage(EncodeBytes(resp))

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if _, err := conn.Write(framed); err != nil {
		s.logger.Error().Err(err).
			Str("remote", conn.RemoteAddr().String()).
			Msg("mllp write error")
	}
}

// ---------------------------------------------------------------------------
// MLLP framing helpers
// ---------------------------------------------------------------------------

// FrameMessage wraps raw HL7v2 bytes in MLLP framing:
//
//	<0x0B> + message + <0x1C><0x0D>
func FrameMessage(data []byte) []byte {
	frame := make([]byte, 0, len(data)+3)
	frame = append(frame, MLLPStartBlock)
	frame = append(frame, data...)
	frame = append(frame, MLLPEndBlock, MLLPCarriageReturn)
	return frame
}

// UnframeMessage extracts HL7v2 bytes from an MLLP frame. It looks for the
// first start block byte, then reads until end block + CR. It returns the
// extracted message, any remaining bytes after the frame, and whether a
// complete frame was found.
func UnframeMessage(data []byte) (message []byte, rest []byte, found bool) {
	startIdx := bytes.IndexByte(data, MLLPStartBlock)
	if startIdx == -1 {
		return nil, data, false
	}

	endSeq := []byte{MLLPEndBlock, MLLPCarriageReturn}
	endIdx := bytes.Index(data[startIdx+1:], endSeq)
	if endIdx == -1 {
		return nil, data, false
	}
	endIdx = startIdx + 1 + endIdx

	message = data[startIdx+1 : endIdx]
	rest = data[endIdx+2:]
	found = true
	return
}

// AckHandler returns a MessageHandler that acknowledges everything with the
// given MSA-1 code.
func AckHandler(code string, logger zerolog.Logger) MessageHandler {
	return func(msg *Message) *Message {
		ack, err := GenerateACK(msg, code)
		if err != nil {
			logger.Error().Err(err).
				Str("control_id", msg.ControlID()).
				Msg("ack generation failed")
			return nil
		}
		return ack
	}
}
