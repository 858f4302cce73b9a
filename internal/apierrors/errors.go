package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure once so callers never inspect raw transport errors
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthRejected
	KindNetworkUnavailable
	KindStorageFault
	KindServer
)

// String returns the kind name used in logs and JSON output
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAuthRejected:
		return "AUTH_REJECTED"
	case KindNetworkUnavailable:
		return "NETWORK_UNAVAILABLE"
	case KindStorageFault:
		return "STORAGE_FAULT"
	case KindServer:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// MsgConnectivity is shown whenever no response was received
const MsgConnectivity = "could not reach the server, check your internet connection"

// Sentinels for errors.Is; matching is by Kind only
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrAuthRejected       = &Error{Kind: KindAuthRejected}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrStorageFault       = &Error{Kind: KindStorageFault}
	ErrServer             = &Error{Kind: KindServer}
)

// Error is the single user-facing failure shape returned by the client layers
type Error struct {
	Kind        Kind
	StatusCode  int        // 0 when no response was received
	Field       string     // set for field-level validation or server field errors
	UserMessage string     // display string, already resolved through a fallback chain
	Body        *ErrorBody // parsed server error body, nil when there was no response
	Err         error      // underlying cause
}

func (e *Error) Error() string {
	msg := e.UserMessage
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation builds a pre-network validation failure
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, UserMessage: message}
}

// Network wraps a transport failure where no response was received
func Network(err error) *Error {
	return &Error{Kind: KindNetworkUnavailable, UserMessage: MsgConnectivity, Err: err}
}

// Storage wraps a credential storage failure
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorageFault, UserMessage: "credential storage " + op + " failed", Err: err}
}

// FromResponse classifies a non-2xx response. The message follows the default
// chain: server message, server detail, HTTP status text, connectivity message.
func FromResponse(statusCode int, body []byte) *Error {
	parsed := ParseErrorBody(body)
	kind := KindServer
	if statusCode == http.StatusUnauthorized {
		kind = KindAuthRejected
	}

	e := &Error{
		Kind:       kind,
		StatusCode: statusCode,
		Body:       parsed,
	}
	e.UserMessage = parsed.Message(FromMessage, FromDetail, Literal(http.StatusText(statusCode)), Literal(MsgConnectivity))
	return e
}

// Refine re-resolves the user message through an operation-specific chain.
// Network failures keep the connectivity message.
func (e *Error) Refine(chain ...Source) *Error {
	if e.Kind == KindNetworkUnavailable || e.Body == nil {
		return e
	}
	if msg, field := e.Body.resolve(chain); msg != "" {
		e.UserMessage = msg
		e.Field = field
	}
	return e
}

// ErrorBody is the tagged form of a server error payload. The service answers
// with any of {"message": ...}, {"detail": ...} or {"<field>": ["..."]}.
type ErrorBody struct {
	MessageText string
	DetailText  string
	Fields      map[string][]string
}

// ParseErrorBody never fails; unknown shapes yield an empty body
func ParseErrorBody(body []byte) *ErrorBody {
	parsed := &ErrorBody{Fields: make(map[string][]string)}
	if len(body) == 0 {
		return parsed
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return parsed
	}

	for key, value := range raw {
		switch key {
		case "message":
			parsed.MessageText = decodeText(value)
		case "detail":
			parsed.DetailText = decodeText(value)
		default:
			if msgs := decodeList(value); len(msgs) > 0 {
				parsed.Fields[key] = msgs
			}
		}
	}
	return parsed
}

// decodeText accepts "x" or ["x", ...]
func decodeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if list := decodeList(raw); len(list) > 0 {
		return list[0]
	}
	return ""
}

func decodeList(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return []string{s}
	}
	return nil
}

// Source is one step in a message fallback chain. It returns the message and
// the field it is attributed to, or "" to fall through.
type Source func(b *ErrorBody) (msg, field string)

var (
	FromMessage Source = func(b *ErrorBody) (string, string) { return b.MessageText, "" }
	FromDetail  Source = func(b *ErrorBody) (string, string) { return b.DetailText, "" }
)

// FromField yields "<label>: <first error>" for a server field error
func FromField(field, label string) Source {
	return func(b *ErrorBody) (string, string) {
		msgs := b.Fields[field]
		if len(msgs) == 0 || strings.TrimSpace(msgs[0]) == "" {
			return "", ""
		}
		return fmt.Sprintf("%s: %s", label, msgs[0]), field
	}
}

// Literal always yields msg; used as the terminal fallback
func Literal(msg string) Source {
	return func(*ErrorBody) (string, string) { return msg, "" }
}

// Message resolves the first non-empty message in chain
func (b *ErrorBody) Message(chain ...Source) string {
	msg, _ := b.resolve(chain)
	return msg
}

func (b *ErrorBody) resolve(chain []Source) (string, string) {
	for _, src := range chain {
		if msg, field := src(b); msg != "" {
			return msg, field
		}
	}
	return "", ""
}

// KindOf returns the kind of err, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the display string for any error
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.UserMessage != "" {
		return e.UserMessage
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
