package decode

import (
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"venuepoint-terminal/internal/camera"
)

// Decoder attempts to extract an encoded identifier from a single frame.
// A failed attempt is not an error; the next frame is simply tried.
type Decoder interface {
	Attempt(frame camera.Frame) (string, bool)
}

// QRDecoder decodes QR codes from camera frames.
type QRDecoder struct {
	reader gozxing.Reader
}

// NewQRDecoder creates a QR decoder.
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{reader: qrcode.NewQRCodeReader()}
}

// Attempt tries to decode one frame. Frames whose dimensions are not yet
// known (device still warming up) are skipped.
func (d *QRDecoder) Attempt(frame camera.Frame) (string, bool) {
	if frame.Width == 0 || frame.Height == 0 || frame.Image == nil {
		return "", false
	}

	source := gozxing.NewLuminanceSourceFromImage(frame.Image)
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return "", false
	}

	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}
