package sip

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// DefaultRegisterInterval is the re-registration period.
const DefaultRegisterInterval = 5 * time.Minute

// readPollInterval bounds how long Run blocks in a single read, so the
// command queue and registration timer are serviced regularly.
const readPollInterval = 200 * time.Millisecond

// Client errors.
var (
	ErrNoServerAddress    = errors.New("sip: no server address configured")
	ErrAlreadyInitialized = errors.New("sip: client already initialized")
	errClosed             = errors.New("sip: connection closed")
)

// registration states.
type regState uint8

const (
	regIdle regState = iota
	regUnauth
	regAuth
	regOK
)

func (s regState) String() string {
	switch s {
	case regIdle:
		return "IDLE"
	case regUnauth:
		return "REGISTER_UNAUTH"
	case regAuth:
		return "REGISTER_AUTH"
	case regOK:
		return "REGISTERED"
	default:
		return "UNKNOWN"
	}
}

// call states.
type callState uint8

const (
	callIdle callState = iota
	callRinging
	callActive
	callCancelling
)

func (s callState) String() string {
	switch s {
	case callIdle:
		return "IDLE"
	case callRinging:
		return "RINGING"
	case callActive:
		return "ACTIVE"
	case callCancelling:
		return "CANCELLING"
	default:
		return "UNKNOWN"
	}
}

// command is a cross-worker request serviced inside Run.
type command uint8

const (
	cmdDial command = iota
	cmdCancel
)

// ClientConfig holds the session identity. Identity, credential, server
// port and ring target are immutable after construction; the server and
// local addresses change only through the two address setters.
type ClientConfig struct {
	// User is the SIP account the doorbell registers as.
	User string

	// Password authenticates digest challenges.
	Password string

	// ServerAddr is the SIP server host or IP. May be empty at
	// construction when the address is learned from the link
	// (server-is-gateway installations).
	ServerAddr string

	// ServerPort is the SIP server port. Defaults to 5060.
	ServerPort uint16

	// LocalAddr is the local IP to bind. May be empty at construction.
	LocalAddr string

	// LocalPort is the local port to bind. 0 picks an ephemeral port.
	LocalPort uint16

	// TargetUser is the account rung when the bell button is pressed.
	TargetUser string

	// RegisterInterval is the re-registration period.
	// Defaults to DefaultRegisterInterval.
	RegisterInterval time.Duration

	// Logger for operational output. Defaults to slog.Default().
	Logger *slog.Logger

	// EventLog captures session events. Optional.
	EventLog eventlog.Logger
}

// Client is the telephony session. Exactly one instance exists for the
// process lifetime; see the package documentation for the threading
// model.
type Client struct {
	cfg     ClientConfig
	logger  *slog.Logger
	capture eventlog.Logger

	// mu guards the mutable addresses and the socket.
	mu         sync.Mutex
	serverAddr string
	localAddr  string
	conn       *net.UDPConn

	initialized atomic.Bool
	registered  atomic.Bool

	// handler is set by the lifecycle worker between Init and Run.
	handler Handler

	// commands carries ring start/cancel requests from the button loop.
	commands chan command

	// Dialog state below is owned exclusively by the Run worker
	// (and by Init, which runs on the same worker).
	server    string // server host captured at Init
	boundAddr string // local ip:port captured at Init
	cseq      uint32

	reg            regState
	regCallID      string
	regBranch      string
	regTag         string
	regRetried     bool // one fresh-nonce retry per REGISTER cycle
	realm, nonce   string
	registerExpiry time.Time

	call       callState
	callID     string
	callURI    string
	callBranch string
	callCSeq   uint32
	callToRaw  string // raw To value of the final response, echoed in ACK/BYE
	callAuthed bool   // one digest retry per INVITE
}

// NewClient creates a telephony session client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ServerPort == 0 {
		cfg.ServerPort = 5060
	}
	if cfg.RegisterInterval <= 0 {
		cfg.RegisterInterval = DefaultRegisterInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capture := cfg.EventLog
	if capture == nil {
		capture = eventlog.NoopLogger{}
	}
	return &Client{
		cfg:        cfg,
		logger:     logger,
		capture:    capture,
		serverAddr: cfg.ServerAddr,
		localAddr:  cfg.LocalAddr,
		commands:   make(chan command, 4),
	}
}

// SetServerAddress reconfigures the SIP server address for the next Init.
func (c *Client) SetServerAddress(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverAddr = addr
}

// SetLocalAddress reconfigures the local bind address for the next Init.
func (c *Client) SetLocalAddress(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localAddr = addr
}

// IsInitialized reports whether the session is live.
func (c *Client) IsInitialized() bool {
	return c.initialized.Load()
}

// IsRegistered reports whether the current registration is accepted.
func (c *Client) IsRegistered() bool {
	return c.registered.Load()
}

// SetEventHandler installs the session event callback. Call it from the
// session worker, after a successful Init and before Run.
func (c *Client) SetEventHandler(h Handler) {
	c.handler = h
}

// Init binds the socket using the currently configured addresses and
// sends the initial registration. On failure no resources stay live and
// the caller may retry later.
func (c *Client) Init() error {
	if c.initialized.Load() {
		return ErrAlreadyInitialized
	}

	c.mu.Lock()
	server, local := c.serverAddr, c.localAddr
	c.mu.Unlock()
	if server == "" {
		return ErrNoServerAddress
	}

	raddr, err := net.ResolveUDPAddr("udp4",
		net.JoinHostPort(server, strconv.Itoa(int(c.cfg.ServerPort))))
	if err != nil {
		return fmt.Errorf("sip: resolve server: %w", err)
	}

	var laddr *net.UDPAddr
	if local != "" || c.cfg.LocalPort != 0 {
		laddr = &net.UDPAddr{IP: net.ParseIP(local), Port: int(c.cfg.LocalPort)}
	}
	conn, err := net.DialUDP("udp4", laddr, raddr)
	if err != nil {
		return fmt.Errorf("sip: bind: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.server = server
	c.boundAddr = conn.LocalAddr().String()
	c.realm, c.nonce = "", ""
	c.regCallID = uuid.NewString()
	c.regTag = shortID()
	c.regBranch = newBranch()
	c.reg = regUnauth
	c.regRetried = false
	c.call = callIdle
	c.registered.Store(false)

	if err := c.write(c.buildRegister(false)); err != nil {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		return fmt.Errorf("sip: send register: %w", err)
	}

	c.initialized.Store(true)
	c.logger.Info("session initialized", "server", raddr.String(), "local", c.boundAddr)
	c.capture.Log(eventlog.NewStateEvent(eventlog.SourceSession, "UNINITIALIZED", "READY", ""))
	return nil
}

// Deinit tears the session down. It is idempotent and safe to invoke
// from any context, including concurrently with an in-progress Run,
// which it causes to return promptly.
func (c *Client) Deinit() {
	wasLive := c.initialized.Swap(false)
	c.registered.Store(false)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}

	if wasLive {
		c.logger.Info("session torn down")
		c.capture.Log(eventlog.NewStateEvent(eventlog.SourceSession, "READY", "UNINITIALIZED", "deinit"))
	}
}

// StartRing requests an outgoing call to the configured target.
// Non-blocking; callable from the button loop worker.
func (c *Client) StartRing() {
	c.enqueue(cmdDial)
}

// CancelRing cancels a pending outgoing ring.
// Non-blocking; callable from the button loop worker.
func (c *Client) CancelRing() {
	c.enqueue(cmdCancel)
}

func (c *Client) enqueue(cmd command) {
	select {
	case c.commands <- cmd:
	default:
		c.logger.Warn("command queue full, dropping", "cmd", cmd)
	}
}

// Run is the session's cooperative processing step. It drains the
// command queue, services protocol timers and dispatches incoming
// datagrams until the session is torn down or the socket fails.
// It must only be entered from the session lifecycle worker.
func (c *Client) Run() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	buf := make([]byte, 2048)
	for c.initialized.Load() {
		c.drainCommands()
		c.checkRegistration()

		_ = conn.SetReadDeadline(time.Now().Add(readPollInterval))
		n, err := conn.Read(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if c.initialized.Load() {
				c.logger.Warn("session I/O failed", "err", err)
				c.capture.Log(eventlog.NewErrorEvent(eventlog.SourceSession, err.Error(), "read"))
			}
			return
		}
		c.handleDatagram(buf[:n])
	}
}

// drainCommands services pending cross-worker requests.
func (c *Client) drainCommands() {
	for {
		select {
		case cmd := <-c.commands:
			switch cmd {
			case cmdDial:
				c.startCall()
			case cmdCancel:
				c.cancelCall()
			}
		default:
			return
		}
	}
}

// checkRegistration re-registers when the current registration expires.
func (c *Client) checkRegistration() {
	if c.reg != regOK || time.Now().Before(c.registerExpiry) {
		return
	}
	c.regBranch = newBranch()
	c.reg = regAuth
	c.regRetried = false
	if err := c.write(c.buildRegister(c.realm != "")); err != nil {
		c.logger.Warn("re-register failed", "err", err)
	}
	// Push the deadline out so a lost response retries at the poll
	// cadence of the next expiry check, not every loop iteration.
	c.registerExpiry = time.Now().Add(10 * time.Second)
}

func (c *Client) handleDatagram(data []byte) {
	pkt, err := Parse(data)
	if err != nil {
		c.logger.Debug("dropping unparseable datagram", "err", err)
		return
	}
	if pkt.Status != StatusUnknown {
		c.handleResponse(pkt)
		return
	}
	c.handleRequest(pkt)
}

func (c *Client) handleResponse(pkt *Packet) {
	switch pkt.CSeqMethod() {
	case "REGISTER":
		c.handleRegisterResponse(pkt)
	case "INVITE":
		c.handleInviteResponse(pkt)
	case "CANCEL":
		// The 487 on the INVITE transaction carries the outcome.
	default:
		c.logger.Debug("ignoring response", "cseq", pkt.CSeq, "status", int(pkt.Status))
	}
}

func (c *Client) handleRegisterResponse(pkt *Packet) {
	switch pkt.Status {
	case StatusUnauthorized, StatusProxyAuthRequired:
		if c.reg == regAuth {
			if pkt.Nonce != "" && pkt.Nonce != c.nonce && !c.regRetried {
				// The server rotated the nonce, which is routine on a
				// periodic re-register. Retry once with the fresh
				// challenge before treating it as a credential failure.
				c.regRetried = true
				c.realm, c.nonce = pkt.Realm, pkt.Nonce
				c.regBranch = newBranch()
				if err := c.write(c.buildRegister(true)); err != nil {
					c.logger.Warn("authenticated register failed", "err", err)
				}
				return
			}
			// Challenge on a fresh-nonce attempt: bad credentials.
			c.logger.Error("registration rejected, check credentials")
			c.reg = regUnauth
			c.registered.Store(false)
			return
		}
		c.realm, c.nonce = pkt.Realm, pkt.Nonce
		c.reg = regAuth
		c.regBranch = newBranch()
		if err := c.write(c.buildRegister(true)); err != nil {
			c.logger.Warn("authenticated register failed", "err", err)
		}

	case StatusOK:
		if c.reg == regOK {
			return
		}
		c.reg = regOK
		c.registered.Store(true)
		c.registerExpiry = time.Now().Add(c.cfg.RegisterInterval)
		c.logger.Info("registered", "user", c.cfg.User, "server", c.server)
		c.capture.Log(eventlog.NewStateEvent(eventlog.SourceSession, "REGISTERING", "REGISTERED", ""))

	case StatusServerError:
		c.logger.Warn("registration server error")
	}
}

func (c *Client) handleInviteResponse(pkt *Packet) {
	if c.call == callIdle {
		return
	}

	switch pkt.Status {
	case StatusTrying, StatusSessionProgress:
		c.logger.Debug("call progress", "status", int(pkt.Status))

	case StatusUnauthorized, StatusProxyAuthRequired:
		c.sendAck(pkt)
		if c.callAuthed {
			c.logger.Warn("call rejected after authentication")
			c.finishCall(ReasonServerError)
			return
		}
		c.callAuthed = true
		c.realm, c.nonce = pkt.Realm, pkt.Nonce
		c.callBranch = newBranch()
		if err := c.write(c.buildInvite(true)); err != nil {
			c.logger.Warn("authenticated invite failed", "err", err)
		}

	case StatusOK:
		c.callToRaw = pkt.To
		c.sendAck(pkt)
		if c.call != callActive {
			c.call = callActive
			c.logger.Info("call started", "call_id", c.callID)
			c.capture.Log(eventlog.NewCallEvent(eventlog.SourceSession, eventlog.CallStarted, c.callID, ""))
			c.emit(Event{Type: EventCallStart})
		}

	case StatusRequestCancelled:
		c.callToRaw = pkt.To
		c.sendAck(pkt)
		c.logger.Info("call cancelled", "call_id", c.callID)
		c.finishCall(ReasonNormal)

	case StatusDecline:
		c.sendAck(pkt)
		c.logger.Info("call declined", "call_id", c.callID)
		c.finishCall(ReasonDeclined)

	case StatusServerError:
		c.sendAck(pkt)
		c.logger.Warn("call failed with server error", "call_id", c.callID)
		c.finishCall(ReasonServerError)
	}
}

// finishCall resets call state and emits CALL_CANCELLED.
func (c *Client) finishCall(reason CancelReason) {
	c.call = callIdle
	c.capture.Log(eventlog.NewCallEvent(eventlog.SourceSession, eventlog.CallCancelled, c.callID, reason.String()))
	c.emit(Event{Type: EventCallCancelled, CancelReason: reason})
}

func (c *Client) handleRequest(pkt *Packet) {
	switch pkt.Method {
	case MethodBye:
		c.respond(pkt, 200, "OK")
		c.call = callIdle
		c.logger.Info("call ended", "call_id", pkt.CallID)
		c.capture.Log(eventlog.NewCallEvent(eventlog.SourceSession, eventlog.CallEnded, pkt.CallID, ""))
		c.emit(Event{Type: EventCallEnd})

	case MethodInfo:
		c.respond(pkt, 200, "OK")
		if signal, duration, ok := ParseDTMF(pkt.Body); ok {
			c.logger.Info("button press", "signal", string(signal), "duration_ms", duration)
			c.capture.Log(eventlog.NewButtonEvent(eventlog.SourceSession, string(signal), uint32(duration)))
			c.emit(Event{
				Type:           EventButtonPress,
				ButtonSignal:   signal,
				ButtonDuration: duration,
			})
		}

	case MethodNotify:
		c.respond(pkt, 200, "OK")

	case MethodInvite:
		c.respond(pkt, 180, "Ringing")
		c.logger.Info("incoming call", "from", pkt.From)
		c.capture.Log(eventlog.NewCallEvent(eventlog.SourceSession, eventlog.CallIncoming, pkt.CallID, ""))
		c.emit(Event{Type: EventIncomingCall})

	default:
		// Unrecognized requests are ignored, forward-compatible.
		c.logger.Debug("ignoring request", "cseq", pkt.CSeq)
	}
}

// startCall sends an INVITE to the configured ring target.
func (c *Client) startCall() {
	if c.reg != regOK {
		c.logger.Warn("not registered, ignoring ring request")
		return
	}
	if c.call != callIdle {
		c.logger.Debug("call already in progress, ignoring ring request")
		return
	}
	if c.cfg.TargetUser == "" {
		c.logger.Warn("no ring target configured")
		return
	}

	c.callID = uuid.NewString()
	c.callURI = fmt.Sprintf("sip:%s@%s", c.cfg.TargetUser, c.server)
	c.callBranch = newBranch()
	c.callAuthed = false
	c.callToRaw = ""
	c.call = callRinging

	if err := c.write(c.buildInvite(false)); err != nil {
		c.logger.Warn("invite failed", "err", err)
		c.call = callIdle
		return
	}
	c.logger.Info("ringing", "target", c.cfg.TargetUser, "call_id", c.callID)
}

// cancelCall cancels a pending outgoing ring. An established call is
// left alone; only the remote side ends it.
func (c *Client) cancelCall() {
	if c.call != callRinging {
		return
	}
	c.call = callCancelling
	if err := c.write(c.buildCancel()); err != nil {
		c.logger.Warn("cancel failed", "err", err)
	}
}

func (c *Client) emit(ev Event) {
	if h := c.handler; h != nil {
		h(ev)
	}
}

// write sends one datagram to the server. Returns errClosed after Deinit.
func (c *Client) write(msg string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errClosed
	}
	_, err := conn.Write([]byte(msg))
	return err
}

// --- message builders ---

func (c *Client) buildRegister(auth bool) string {
	c.cseq++
	uri := "sip:" + c.server

	var sb strings.Builder
	fmt.Fprintf(&sb, "REGISTER %s SIP/2.0\r\n", uri)
	fmt.Fprintf(&sb, "Via: SIP/2.0/UDP %s;branch=%s;rport\r\n", c.boundAddr, c.regBranch)
	sb.WriteString("Max-Forwards: 70\r\n")
	fmt.Fprintf(&sb, "From: <sip:%s@%s>;tag=%s\r\n", c.cfg.User, c.server, c.regTag)
	fmt.Fprintf(&sb, "To: <sip:%s@%s>\r\n", c.cfg.User, c.server)
	fmt.Fprintf(&sb, "Call-ID: %s\r\n", c.regCallID)
	fmt.Fprintf(&sb, "CSeq: %d REGISTER\r\n", c.cseq)
	fmt.Fprintf(&sb, "Contact: <sip:%s@%s>\r\n", c.cfg.User, c.boundAddr)
	if auth {
		fmt.Fprintf(&sb, "Authorization: %s\r\n",
			DigestAuthorization(c.cfg.User, c.realm, c.cfg.Password, "REGISTER", uri, c.nonce))
	}
	fmt.Fprintf(&sb, "Expires: %d\r\n", int(c.cfg.RegisterInterval.Seconds()))
	sb.WriteString("Content-Length: 0\r\n\r\n")
	return sb.String()
}

func (c *Client) buildInvite(auth bool) string {
	c.cseq++
	c.callCSeq = c.cseq
	body := c.buildSDP()

	var sb strings.Builder
	fmt.Fprintf(&sb, "INVITE %s SIP/2.0\r\n", c.callURI)
	fmt.Fprintf(&sb, "Via: SIP/2.0/UDP %s;branch=%s;rport\r\n", c.boundAddr, c.callBranch)
	sb.WriteString("Max-Forwards: 70\r\n")
	fmt.Fprintf(&sb, "From: <sip:%s@%s>;tag=%s\r\n", c.cfg.User, c.server, c.regTag)
	fmt.Fprintf(&sb, "To: <%s>\r\n", c.callURI)
	fmt.Fprintf(&sb, "Call-ID: %s\r\n", c.callID)
	fmt.Fprintf(&sb, "CSeq: %d INVITE\r\n", c.callCSeq)
	fmt.Fprintf(&sb, "Contact: <sip:%s@%s>\r\n", c.cfg.User, c.boundAddr)
	if auth {
		fmt.Fprintf(&sb, "Authorization: %s\r\n",
			DigestAuthorization(c.cfg.User, c.realm, c.cfg.Password, "INVITE", c.callURI, c.nonce))
	}
	sb.WriteString("Content-Type: application/sdp\r\n")
	fmt.Fprintf(&sb, "Content-Length: %d\r\n\r\n", len(body))
	sb.WriteString(body)
	return sb.String()
}

// buildSDP offers a static audio stream; media is not transported.
func (c *Client) buildSDP() string {
	host, _, _ := net.SplitHostPort(c.boundAddr)
	var sb strings.Builder
	sb.WriteString("v=0\r\n")
	fmt.Fprintf(&sb, "o=%s 0 0 IN IP4 %s\r\n", c.cfg.User, host)
	sb.WriteString("s=doorbell\r\n")
	fmt.Fprintf(&sb, "c=IN IP4 %s\r\n", host)
	sb.WriteString("t=0 0\r\n")
	sb.WriteString("m=audio 7078 RTP/AVP 0\r\n")
	sb.WriteString("a=rtpmap:0 PCMU/8000\r\n")
	return sb.String()
}

// buildCancel cancels the pending INVITE transaction: same request URI,
// branch and sequence number, method CANCEL.
func (c *Client) buildCancel() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CANCEL %s SIP/2.0\r\n", c.callURI)
	fmt.Fprintf(&sb, "Via: SIP/2.0/UDP %s;branch=%s;rport\r\n", c.boundAddr, c.callBranch)
	sb.WriteString("Max-Forwards: 70\r\n")
	fmt.Fprintf(&sb, "From: <sip:%s@%s>;tag=%s\r\n", c.cfg.User, c.server, c.regTag)
	fmt.Fprintf(&sb, "To: <%s>\r\n", c.callURI)
	fmt.Fprintf(&sb, "Call-ID: %s\r\n", c.callID)
	fmt.Fprintf(&sb, "CSeq: %d CANCEL\r\n", c.callCSeq)
	sb.WriteString("Content-Length: 0\r\n\r\n")
	return sb.String()
}

// sendAck acknowledges a final INVITE response, echoing its To value so
// the dialog tags match.
func (c *Client) sendAck(pkt *Packet) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ACK %s SIP/2.0\r\n", c.callURI)
	fmt.Fprintf(&sb, "Via: SIP/2.0/UDP %s;branch=%s;rport\r\n", c.boundAddr, newBranch())
	sb.WriteString("Max-Forwards: 70\r\n")
	fmt.Fprintf(&sb, "From: <sip:%s@%s>;tag=%s\r\n", c.cfg.User, c.server, c.regTag)
	fmt.Fprintf(&sb, "To: %s\r\n", pkt.To)
	fmt.Fprintf(&sb, "Call-ID: %s\r\n", pkt.CallID)
	fmt.Fprintf(&sb, "CSeq: %d ACK\r\n", pkt.CSeqNumber())
	sb.WriteString("Content-Length: 0\r\n\r\n")
	if err := c.write(sb.String()); err != nil {
		c.logger.Debug("ack failed", "err", err)
	}
}

// respond answers a request, echoing its routing headers.
func (c *Client) respond(pkt *Packet, code int, reason string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SIP/2.0 %d %s\r\n", code, reason)
	fmt.Fprintf(&sb, "Via: %s\r\n", pkt.Via)
	fmt.Fprintf(&sb, "From: %s\r\n", pkt.From)
	fmt.Fprintf(&sb, "To: %s\r\n", pkt.To)
	fmt.Fprintf(&sb, "Call-ID: %s\r\n", pkt.CallID)
	fmt.Fprintf(&sb, "CSeq: %s\r\n", pkt.CSeq)
	sb.WriteString("Content-Length: 0\r\n\r\n")
	if err := c.write(sb.String()); err != nil {
		c.logger.Debug("response failed", "err", err)
	}
}

func newBranch() string {
	return "z9hG4bK-" + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
