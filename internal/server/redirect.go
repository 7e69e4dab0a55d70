package server

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spt/internal/shared"
)

//go:embed redirect.html
var successPage []byte

const (
	// DefaultBufferSize bounds how much of a request is read; large enough for a request line plus browser headers.
	DefaultBufferSize = 4096
	// MinBufferSize is the smallest buffer accepted by [WithBufferSize].
	MinBufferSize = 1000

	defaultReadTimeout = time.Second
	loopbackHost       = "127.0.0.1"
)

type captureState int

const (
	listening captureState = iota
	responded
)

// RedirectListener is a one-shot loopback listener that captures the OAuth redirect path.
type RedirectListener struct {
	ln          net.Listener
	logger      *log.Logger
	page        []byte
	bufSize     int
	readTimeout time.Duration
}

// Option configures a [RedirectListener].
type Option func(*RedirectListener)

// WithLogger sets the logger used for malformed connections and accept failures.
func WithLogger(l *log.Logger) Option {
	return func(r *RedirectListener) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPage replaces the HTML body sent with the 200 response.
func WithPage(page []byte) Option {
	return func(r *RedirectListener) { r.page = page }
}

// WithBufferSize sets the per-connection read buffer. Values below [MinBufferSize] are raised to it.
func WithBufferSize(n int) Option {
	return func(r *RedirectListener) { r.bufSize = max(n, MinBufferSize) }
}

// WithReadTimeout bounds how long a single connection may take to send its request.
func WithReadTimeout(d time.Duration) Option {
	return func(r *RedirectListener) {
		if d > 0 {
			r.readTimeout = d
		}
	}
}

// Bind opens a TCP listener on 127.0.0.1:port. Port 0 picks a free port.
//
// Failure wraps [shared.ErrBind] and is not retried.
func Bind(port int, opts ...Option) (*RedirectListener, error) {
	addr := net.JoinHostPort(loopbackHost, strconv.Itoa(port))
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrBind, addr, err)
	}

	r := &RedirectListener{
		ln:          ln,
		logger:      shared.NewLogger(nil),
		page:        successPage,
		bufSize:     DefaultBufferSize,
		readTimeout: defaultReadTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Addr returns the bound address.
func (r *RedirectListener) Addr() net.Addr {
	return r.ln.Addr()
}

// Port returns the bound port, useful after binding port 0.
func (r *RedirectListener) Port() int {
	if addr, ok := r.ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Close releases the listener. Safe to call after [RedirectListener.Capture] returns.
func (r *RedirectListener) Close() error {
	err := r.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Capture accepts connections until one carries a parseable request line, answers it with 200
// and the confirmation page, and returns its path and query (e.g. "/callback?code=...").
//
// Connections with invalid UTF-8 or no path token get a 400 and the loop continues.
// The listener is closed before Capture returns. Cancelling ctx closes it early.
func (r *RedirectListener) Capture(ctx context.Context) (string, error) {
	defer r.Close()
	stop := context.AfterFunc(ctx, func() { r.ln.Close() })
	defer stop()

	var (
		state  = listening
		result string
		delay  time.Duration
	)

	for state == listening {
		conn, err := r.ln.Accept()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				if errors.Is(ctxErr, context.DeadlineExceeded) {
					return "", fmt.Errorf("%w: waiting for redirect: %v", shared.ErrTimeout, ctxErr)
				}
				return "", ctxErr
			}
			if errors.Is(err, net.ErrClosed) {
				return "", shared.ErrCaptureAborted
			}

			delay = min(max(2*delay, 5*time.Millisecond), time.Second)
			r.logger.Warn("accept failed", "error", err, "retry_in", delay)
			time.Sleep(delay)
			continue
		}
		delay = 0

		if path, ok := r.handle(conn); ok {
			result = path
			state = responded
		}
	}

	return result, nil
}

// handle answers a single connection and reports whether it yielded the callback path.
func (r *RedirectListener) handle(conn net.Conn) (string, bool) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(r.readTimeout)); err != nil {
		r.logger.Debug("failed to set read deadline", "error", err)
	}

	data, err := readRequest(conn, r.bufSize)
	if err != nil {
		r.logger.Debug("connection closed before sending a request", "remote", conn.RemoteAddr(), "error", err)
		return "", false
	}

	path, err := ParseRequestPath(data)
	if err != nil {
		r.logger.Error("rejecting redirect request", "remote", conn.RemoteAddr(), "error", err)
		if werr := respondWithError(conn, err); werr != nil {
			r.logger.Debug("failed to write error response", "error", werr)
		}
		return "", false
	}

	if err := respondWithSuccess(conn, r.page); err != nil {
		r.logger.Warn("failed to write confirmation page", "error", err)
	}
	return path, true
}

// ParseRequestPath returns the second whitespace-delimited token of a raw HTTP request.
//
// Errors wrap [shared.ErrMalformedRequest].
func ParseRequestPath(data []byte) (string, error) {
	if i := invalidUTF8Index(data); i >= 0 {
		return "", fmt.Errorf("%w: Invalid UTF-8 sequence at byte %d", shared.ErrMalformedRequest, i)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return "", fmt.Errorf("%w: Malformed request", shared.ErrMalformedRequest)
	}
	return fields[1], nil
}

// readRequest reads until the end of the header block, a full buffer, EOF, or the read deadline.
//
// It returns an error only when nothing at all was read.
func readRequest(conn io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if bytes.Contains(buf[:n], []byte("\r\n\r\n")) {
			break
		}
		if err != nil {
			if n > 0 {
				break
			}
			return nil, err
		}
	}

	data := buf[:n]
	if n == len(buf) {
		data = trimPartialRune(data)
	}
	return data, nil
}

// trimPartialRune drops a multi-byte rune cut off by the end of the buffer.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

func invalidUTF8Index(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

func respondWithSuccess(w io.Writer, page []byte) error {
	return writeResponse(w, http.StatusOK, "text/html; charset=utf-8", page)
}

func respondWithError(w io.Writer, cause error) error {
	msg := cause.Error()
	if _, after, ok := strings.Cut(msg, shared.ErrMalformedRequest.Error()+": "); ok {
		msg = after
	}
	body := fmt.Sprintf("400 - Bad Request - %s", msg)
	return writeResponse(w, http.StatusBadRequest, "text/plain; charset=utf-8", []byte(body))
}

func writeResponse(w io.Writer, status int, contentType string, body []byte) error {
	header := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: %s\r\nContent-Length: %d\r\nConnection: close\r\n\r\n",
		status, http.StatusText(status), contentType, len(body),
	)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// CaptureRedirect binds 127.0.0.1:port and blocks until the OAuth redirect arrives or ctx ends.
func CaptureRedirect(ctx context.Context, port int, logger *log.Logger) (string, error) {
	r, err := Bind(port, WithLogger(logger))
	if err != nil {
		return "", err
	}
	return r.Capture(ctx)
}
