// Package ocr recognizes text in uploaded images through vision models.
// Recognition runs on sessions leased from a bounded Pool; a session is
// always returned to the pool when the call that acquired it finishes.
package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"time"
)

var (
	// ErrOCRUnavailable is returned when no OCR credentials are configured.
	ErrOCRUnavailable = errors.New("ocr provider is not configured")
	// ErrSessionReleased is returned when a session is used after Release.
	ErrSessionReleased = errors.New("ocr session already released")
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("ocr pool is closed")
)

const (
	ProviderZAI    = "zai"
	ProviderOpenAI = "openai"
)

// recognitionPrompt asks a vision model for a plain transcription.
const recognitionPrompt = "Transcribe all text visible in this image exactly as written, in reading order. " +
	"Output only the transcribed text with line breaks between lines. If there is no text, output nothing."

// Image is an encoded raster image.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI renders the image as a base64 data URI for vision APIs.
func (img Image) DataURI() string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Engine turns an image into text.
type Engine interface {
	Recognize(ctx context.Context, img Image) (string, error)
}

// Config holds configuration for the OCR engine and its pool.
type Config struct {
	Provider string `validate:"oneof=zai openai"`
	APIKey   string
	BaseURL  string
	Model    string
	Workers  int           `validate:"min=1"`
	Timeout  time.Duration `validate:"gt=0"`
}

type unavailable struct{}

func (unavailable) Recognize(context.Context, Image) (string, error) {
	return "", ErrOCRUnavailable
}
