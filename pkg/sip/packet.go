package sip

import (
	"errors"
	"strconv"
	"strings"
)

// Status is a SIP response status code. StatusUnknown (0) marks requests
// and unrecognized responses.
type Status int

// Response statuses the doorbell reacts to.
const (
	StatusUnknown           Status = 0
	StatusTrying            Status = 100
	StatusSessionProgress   Status = 183
	StatusOK                Status = 200
	StatusUnauthorized      Status = 401
	StatusProxyAuthRequired Status = 407
	StatusRequestCancelled  Status = 487
	StatusServerError       Status = 500
	StatusDecline           Status = 603
)

// Method is a SIP request method.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodNotify
	MethodBye
	MethodInfo
	MethodInvite
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodNotify:
		return "NOTIFY"
	case MethodBye:
		return "BYE"
	case MethodInfo:
		return "INFO"
	case MethodInvite:
		return "INVITE"
	default:
		return "UNKNOWN"
	}
}

// ErrMalformedPacket is returned when a datagram has no complete header.
var ErrMalformedPacket = errors.New("sip: malformed packet")

// Packet is a parsed SIP message. For responses Status is set and Method
// is MethodUnknown; for requests the opposite.
type Packet struct {
	Status Status
	Method Method

	// Authentication challenge parameters, from a WWW-Authenticate or
	// Proxy-Authenticate line.
	Realm string
	Nonce string

	// Raw header values, echoed back when building responses.
	Contact string
	To      string
	ToTag   string
	From    string
	Via     string
	CSeq    string
	CallID  string

	// Body is the message payload, if any.
	Body string
}

// Parse parses a SIP datagram. The header must terminate with an empty
// line; anything after it becomes the body.
func Parse(data []byte) (*Packet, error) {
	text := string(data)
	header, body, found := strings.Cut(text, "\r\n\r\n")
	if !found {
		return nil, ErrMalformedPacket
	}

	p := &Packet{Body: body}
	for i, line := range strings.Split(header, "\r\n") {
		switch {
		case strings.HasPrefix(line, "SIP/2.0 "):
			code, err := strconv.Atoi(firstToken(line[len("SIP/2.0 "):]))
			if err == nil {
				p.Status = convertStatus(code)
			}

		case strings.HasPrefix(line, "WWW-Authenticate"),
			strings.HasPrefix(line, "Proxy-Authenticate"):
			p.Realm = quotedParam(line, "realm")
			p.Nonce = quotedParam(line, "nonce")

		case strings.HasPrefix(line, "Contact: <"):
			value := line[len("Contact: <"):]
			if end := strings.IndexByte(value, '>'); end >= 0 {
				p.Contact = value[:end]
			}

		case strings.HasPrefix(line, "To: "):
			p.To = line[len("To: "):]
			if _, tag, ok := strings.Cut(p.To, ">;tag="); ok {
				p.ToTag = tag
			}

		case strings.HasPrefix(line, "From: "):
			p.From = line[len("From: "):]

		case strings.HasPrefix(line, "Via: "):
			p.Via = line[len("Via: "):]

		case strings.HasPrefix(line, "CSeq: "):
			p.CSeq = line[len("CSeq: "):]

		case strings.HasPrefix(line, "Call-ID: "):
			p.CallID = line[len("Call-ID: "):]

		case i == 0:
			// First line, but not a response: a request method.
			p.Method = convertMethod(line)
		}
	}
	return p, nil
}

// CSeqNumber returns the sequence number from the CSeq header, or 0.
func (p *Packet) CSeqNumber() uint32 {
	n, _ := strconv.ParseUint(firstToken(p.CSeq), 10, 32)
	return uint32(n)
}

// CSeqMethod returns the method name from the CSeq header.
func (p *Packet) CSeqMethod() string {
	fields := strings.Fields(p.CSeq)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// quotedParam extracts a double-quoted parameter value from a header line.
func quotedParam(line, name string) string {
	pos := strings.Index(line, name+`="`)
	if pos < 0 {
		return ""
	}
	value := line[pos+len(name)+2:]
	end := strings.IndexByte(value, '"')
	if end < 0 {
		return ""
	}
	return value[:end]
}

func convertStatus(code int) Status {
	switch Status(code) {
	case StatusTrying, StatusSessionProgress, StatusOK,
		StatusUnauthorized, StatusProxyAuthRequired,
		StatusRequestCancelled, StatusServerError, StatusDecline:
		return Status(code)
	}
	return StatusUnknown
}

func convertMethod(line string) Method {
	switch {
	case strings.HasPrefix(line, "NOTIFY "):
		return MethodNotify
	case strings.HasPrefix(line, "BYE "):
		return MethodBye
	case strings.HasPrefix(line, "INFO "):
		return MethodInfo
	case strings.HasPrefix(line, "INVITE "):
		return MethodInvite
	default:
		return MethodUnknown
	}
}

// ParseDTMF extracts the signal and duration from a dtmf-relay INFO body:
//
//	Signal=5
//	Duration=160
func ParseDTMF(body string) (signal byte, duration uint16, ok bool) {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if value, found := strings.CutPrefix(line, "Signal="); found && value != "" {
			signal = value[0]
			ok = true
		} else if value, found := strings.CutPrefix(line, "Duration="); found {
			if d, err := strconv.ParseUint(strings.TrimSpace(value), 10, 16); err == nil {
				duration = uint16(d)
			}
		}
	}
	return signal, duration, ok
}
