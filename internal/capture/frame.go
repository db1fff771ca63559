package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"
)

// ErrInvalidImage is returned when bytes cannot be decoded into a frame.
var ErrInvalidImage = errors.New("invalid image data")

// Valid reports whether frame holds pixel data.
func Valid(frame *gocv.Mat) bool {
	return frame != nil && !frame.Empty()
}

// Mirror flips frame horizontally in place.
func Mirror(frame *gocv.Mat) {
	if !Valid(frame) {
		return
	}
	gocv.Flip(*frame, frame, 1)
}

// Decode turns encoded image bytes (JPEG, PNG) into a BGR frame.
// The caller is responsible for closing the returned Mat.
func Decode(data []byte) (*gocv.Mat, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrInvalidImage
	}
	return &mat, nil
}

// DecodeBase64 decodes a base64 image, accepting an optional data URL prefix
// such as "data:image/jpeg;base64,".
func DecodeBase64(s string) (*gocv.Mat, error) {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Decode(data)
}

// EncodeJPEG returns frame as JPEG bytes.
func EncodeJPEG(frame *gocv.Mat) ([]byte, error) {
	if !Valid(frame) {
		return nil, ErrInvalidImage
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// EncodeBase64 returns frame as a base64 JPEG string.
func EncodeBase64(frame *gocv.Mat) (string, error) {
	data, err := EncodeJPEG(frame)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// SolidFrame returns a width x height BGR frame filled with c.
func SolidFrame(width, height int, c color.RGBA) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&mat, image.Rect(0, 0, width, height), c, -1)
	return mat
}
