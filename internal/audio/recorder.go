package audio

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"convoeval/internal/domain"
)

// DefaultMIMEType is used when a capture session cannot report its own
// container type and sniffing the bytes is inconclusive.
const DefaultMIMEType = "audio/webm"

// Device opens microphone capture sessions. Open returns an error when
// the user denies access or no input device exists.
type Device interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one live capture. Read blocks until the next chunk is
// available and returns io.EOF (or any other error) once the stream ends.
// Close releases the underlying device and must be safe to call more
// than once.
type Session interface {
	Read() ([]byte, error)
	MIMEType() string
	Close() error
}

// Recorder is the idle -> recording -> idle state machine around a
// Device. At most one session is active per recorder; each session
// finalizes into exactly one immutable Clip.
type Recorder struct {
	device Device
	logger *zap.Logger

	mu        sync.Mutex
	recording bool
	session   Session
	sessionID string
	chunks    chan [][]byte
	clip      *Clip
}

func NewRecorder(device Device, logger *zap.Logger) *Recorder {
	return &Recorder{device: device, logger: logger}
}

// Start requests device access and begins accumulating chunks. Starting
// while already recording fails with INVALID_STATE; a denied or missing
// device fails with PERMISSION_DENIED and leaves the recorder idle.
// A successful Start discards any previously captured, unsubmitted clip.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return domain.NewInvalidStateError("recording already in progress")
	}

	sess, err := r.device.Open(ctx)
	if err != nil {
		return domain.NewPermissionDeniedError("could not access microphone, check permissions and device availability", err)
	}

	r.session = sess
	r.sessionID = uuid.NewString()
	r.clip = nil
	r.chunks = make(chan [][]byte, 1)
	r.recording = true

	go drain(sess, r.chunks)

	r.logger.Info("recording started", zap.String("session_id", r.sessionID))
	return nil
}

// drain accumulates chunks until the session ends. On a read failure it
// closes the session itself so the device is never left held.
func drain(sess Session, out chan<- [][]byte) {
	var chunks [][]byte
	for {
		b, err := sess.Read()
		if len(b) > 0 {
			chunks = append(chunks, append([]byte(nil), b...))
		}
		if err != nil {
			if err != io.EOF {
				_ = sess.Close()
			}
			break
		}
	}
	out <- chunks
}

// Stop finalizes the active session into a single Clip and releases the
// device. It is a no-op returning nil when the recorder is idle.
func (r *Recorder) Stop() *Clip {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}

	mime := r.session.MIMEType()
	_ = r.session.Close() // releases the device and unblocks drain
	chunks := <-r.chunks

	r.recording = false
	r.session = nil

	data := bytes.Join(chunks, nil)
	if mime == "" {
		mime = SniffMIME(data)
	}
	r.clip = &Clip{MIMEType: mime, Data: data}

	r.logger.Info("recording stopped",
		zap.String("session_id", r.sessionID),
		zap.String("mime_type", mime),
		zap.Int("bytes", len(data)))
	return r.clip
}

// Result returns the clip finalized by the most recent session, or nil
// when none exists or recording is still in progress.
func (r *Recorder) Result() *Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return nil
	}
	return r.clip
}

// Recording reports whether a session is currently active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// SniffMIME detects the container type of raw audio bytes, falling back
// to DefaultMIMEType when detection is inconclusive.
func SniffMIME(data []byte) string {
	if len(data) == 0 {
		return DefaultMIMEType
	}
	detected := mimetype.Detect(data).String()
	// Strip any codec parameters and reject the catch-all sniff result.
	detected, _, _ = strings.Cut(detected, ";")
	if detected == "" || detected == "application/octet-stream" {
		return DefaultMIMEType
	}
	return detected
}
