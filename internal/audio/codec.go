package audio

import (
	"encoding/base64"
	"strings"
)

// Clip is one finalized recording: raw bytes plus their MIME type.
// Immutable after the recorder produces it.
type Clip struct {
	MIMEType string
	Data     []byte
}

// Encode serializes a clip into the self-describing data-URL form
// "data:<mime>;base64,<payload>". The same string is sent to the model
// and persisted in history, so it must round-trip exactly. A clip with
// no MIME type gets one sniffed from its bytes; an empty header would
// otherwise produce a string Decode rejects.
func Encode(clip *Clip) string {
	if clip == nil {
		return ""
	}
	mime := clip.MIMEType
	if mime == "" {
		mime = SniffMIME(clip.Data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(clip.Data)
}

// Decode reconstructs a clip from its data-URL encoding. Malformed or
// empty input yields nil rather than an error: absent audio is a normal
// case for callers, not a failure.
func Decode(encoded string) *Clip {
	if encoded == "" {
		return nil
	}
	header, payload, found := strings.Cut(encoded, ",")
	if !found {
		return nil
	}
	if !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if mime == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return &Clip{MIMEType: mime, Data: data}
}
