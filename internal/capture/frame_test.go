package capture

import (
	"errors"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestValid(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	frame := SolidFrame(8, 8, color.RGBA{})
	defer frame.Close()

	if Valid(nil) {
		t.Error("nil frame should be invalid")
	}
	if Valid(&empty) {
		t.Error("empty frame should be invalid")
	}
	if !Valid(&frame) {
		t.Error("solid frame should be valid")
	}
}

func TestEncodeDecodeJPEG(t *testing.T) {
	frame := SolidFrame(64, 48, color.RGBA{0, 128, 255, 0})
	defer frame.Close()

	data, err := EncodeJPEG(&frame)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatal("EncodeJPEG() did not produce a JPEG")
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer decoded.Close()

	if decoded.Cols() != 64 || decoded.Rows() != 48 {
		t.Errorf("decoded size = %dx%d, want 64x48", decoded.Cols(), decoded.Rows())
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not a jpeg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrInvalidImage) {
				t.Errorf("Decode() error = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestDecodeBase64(t *testing.T) {
	frame := SolidFrame(16, 16, color.RGBA{255, 255, 255, 0})
	defer frame.Close()

	encoded, err := EncodeBase64(&frame)
	if err != nil {
		t.Fatalf("EncodeBase64() error = %v", err)
	}

	for _, input := range []string{encoded, "data:image/jpeg;base64," + encoded} {
		mat, err := DecodeBase64(input)
		if err != nil {
			t.Fatalf("DecodeBase64() error = %v", err)
		}
		mat.Close()
	}

	if _, err := DecodeBase64("%%%"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("DecodeBase64() error = %v, want ErrInvalidImage", err)
	}
}

func TestMirror(t *testing.T) {
	frame := gocv.NewMatWithSize(1, 2, gocv.MatTypeCV8UC1)
	defer frame.Close()
	frame.SetUCharAt(0, 0, 10)
	frame.SetUCharAt(0, 1, 200)

	Mirror(&frame)

	if got := frame.GetUCharAt(0, 0); got != 200 {
		t.Errorf("left pixel = %d, want 200", got)
	}
	if got := frame.GetUCharAt(0, 1); got != 10 {
		t.Errorf("right pixel = %d, want 10", got)
	}

	// Invalid frames are ignored.
	Mirror(nil)
}
