package piper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/io/tts"
	"github.com/xpanvictor/parley/pkg/io/tts/piper/stream"
)

type Piper struct {
	BaseURL string       // e.g. "http://tts:5000"
	Client  *http.Client // default if nil
	Voice   string       // default voice, overridden per call
	Timeout time.Duration

	conv   *stream.Converter
	logger *Logger.Logger
}

var _ tts.Synthesizer = (*Piper)(nil)

func New(baseURL, voice string, timeout time.Duration, logger *Logger.Logger) *Piper {
	return &Piper{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Voice:   voice,
		Timeout: timeout,
		conv:    stream.NewConverter(),
		logger:  logger.Named("piper"),
	}
}

// DoTTS calls GET /api/text-to-speech and returns the WAV body. The caller closes it.
func (p *Piper) DoTTS(ctx context.Context, text string, optVoice string) (io.ReadCloser, string, error) {
	if text == "" {
		return nil, "", tts.ErrEmptyText
	}
	voice := ifEmpty(optVoice, p.Voice)

	u, err := url.Parse(p.BaseURL + "/api/text-to-speech")
	if err != nil {
		return nil, "", err
	}
	q := u.Query()
	q.Set("text", text)
	if voice != "" {
		q.Set("voice", voice)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "audio/wav")

	hc := p.Client
	if hc == nil {
		hc = &http.Client{}
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("tts http request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, "", fmt.Errorf("tts http %d: %s (dur=%s)", resp.StatusCode, string(b), time.Since(start))
	}
	return resp.Body, ifEmpty(resp.Header.Get("Content-Type"), "audio/wav"), nil
}

// Synthesize returns MP3 when ffmpeg is available and the raw WAV otherwise.
func (p *Piper) Synthesize(ctx context.Context, text string, cfg tts.Config) (tts.Audio, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, ct, err := p.DoTTS(ctx, text, cfg.Voice)
	if err != nil {
		return tts.Audio{}, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("read piper audio: %w", err)
	}
	if len(raw) == 0 {
		return tts.Audio{}, tts.ErrEmptyAudio
	}

	mp3, err := p.conv.ToMP3(ctx, raw, ct)
	switch {
	case err == nil:
		return tts.Audio{Data: mp3, Format: "mp3"}, nil
	case errors.Is(err, stream.ErrNoFFmpeg):
		return tts.Audio{Data: raw, Format: "wav"}, nil
	default:
		p.logger.Warnf("mp3 conversion failed, sending wav: %v", err)
		return tts.Audio{Data: raw, Format: "wav"}, nil
	}
}

func ifEmpty(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
