package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/microsoft/soundscape-core/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

// Synthesize speaks a TTSSound and returns the generated audio once Deepgram
// confirms the flush.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, sound audio.Sound, encoding audio.EncodingInfo) ([]byte, error) {
	speech, ok := sound.(audio.TTSSound)
	if !ok {
		return nil, fmt.Errorf("%T: %w", sound, audio.ErrUnsupportedSound)
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.Int("tts.text_length", len(speech.Text)))

	pcm, err := s.synthesize(ctx, speech.Text, encoding)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("tts.audio_bytes", len(pcm)))
	return pcm, nil
}

func (s *SpeechSynthesizer) synthesize(ctx context.Context, text string, encoding audio.EncodingInfo) ([]byte, error) {
	conn, err := s.connectWebsocket(ctx, encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(speakMessage{Type: "Speak", Text: text}); err != nil {
		return nil, fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		return nil, fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}

	var pcm []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("websocket read error: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, msg...)
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				if err := conn.WriteJSON(closeMsg); err != nil {
					logger.Debug("failed to close deepgram stream", "error", err)
				}
				return pcm, nil
			case "Warning", "Error":
				return nil, errors.New("deepgram: " + string(msg))
			}
		}
	}
}

func (s *SpeechSynthesizer) connectWebsocket(ctx context.Context, encoding audio.EncodingInfo) (*websocket.Conn, error) {
	if encoding.IsZero() {
		encoding = audio.GetDefaultEncodingInfo()
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encoding.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	urlValues.Set("model", string(s.voice))
	urlValues.Set("container", "none")

	conn, _, err := s.dialer.DialContext(ctx,
		(&url.URL{
			Scheme: s.scheme,
			Host:   s.host, Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}
