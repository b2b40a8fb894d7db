package capture

import "fmt"

// DeviceErrorKind classifies device capability failures
type DeviceErrorKind string

const (
	DeviceUnavailable      DeviceErrorKind = "unavailable"
	DevicePermissionDenied DeviceErrorKind = "permission_denied"
	DeviceUnsupportedCodec DeviceErrorKind = "unsupported_codec"
)

// DeviceError is a typed failure from the device capability layer. It is
// fatal to capture; callers surface it and do not retry.
type DeviceError struct {
	Kind DeviceErrorKind
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio device %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("audio device %s", e.Kind)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Source is a live audio source producing fixed-size sample windows.
// SampleWindow returns an error only when the source is lost.
type Source interface {
	SampleWindow() ([]float32, error)
}

// EncodedAudio is a finished encoder output
type EncodedAudio struct {
	Bytes    []byte
	MimeType string
}

// Encoder is a platform-provided audio encoder. Start begins capturing from
// the source; Stop ends capture and yields the encoded clip bytes.
type Encoder interface {
	Start(src Source) error
	Stop() (EncodedAudio, error)
}

// Device is the capability layer granting access to the live audio source
// and an encoder bound to it.
type Device interface {
	AcquireSource() (Source, error)
	NewEncoder() Encoder
}
