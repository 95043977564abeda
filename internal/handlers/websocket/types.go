package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xpanvictor/parley/pkg/io/tts"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// inbound
	MessageTypeStart  MessageType = "start"
	MessageTypeStop   MessageType = "stop"
	MessageTypeAudio  MessageType = "audio"
	MessageTypeSetTTS MessageType = "setTTS"

	// outbound
	MessageTypeState            MessageType = "state"
	MessageTypeTranscript       MessageType = "transcript"
	MessageTypeResponse         MessageType = "response"
	MessageTypeCommand          MessageType = "command"
	MessageTypeTTSConfigUpdated MessageType = "ttsConfigUpdated"
	MessageTypeError            MessageType = "error"
)

// ErrProtocol marks a malformed inbound message. The connection stays open.
var ErrProtocol = errors.New("protocol error")

// InboundMessage is the raw shape of every client message.
type InboundMessage struct {
	Type   MessageType                `json:"type"`
	Data   json.RawMessage            `json:"data,omitempty"`
	Config map[string]json.RawMessage `json:"config,omitempty"`
}

// Command is an inbound message after validation.
type Command struct {
	Type    MessageType
	Samples []int16
	TTS     tts.Config
	// Ignored lists setTTS fields that were present but not strings.
	Ignored []string
}

// ParseCommand decodes one text frame. Unknown types are returned as-is
// so the caller can decide to ignore them.
func ParseCommand(data []byte) (Command, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if msg.Type == "" {
		return Command{}, fmt.Errorf("%w: missing type", ErrProtocol)
	}

	cmd := Command{Type: msg.Type}
	switch msg.Type {
	case MessageTypeAudio:
		if len(msg.Data) == 0 {
			return Command{}, fmt.Errorf("%w: audio without data", ErrProtocol)
		}
		if err := json.Unmarshal(msg.Data, &cmd.Samples); err != nil {
			return Command{}, fmt.Errorf("%w: audio data must be int16 samples: %v", ErrProtocol, err)
		}
	case MessageTypeSetTTS:
		if msg.Config == nil {
			return Command{}, fmt.Errorf("%w: setTTS without config", ErrProtocol)
		}
		cmd.TTS, cmd.Ignored = decodeTTSPatch(msg.Config)
	}
	return cmd, nil
}

// decodeTTSPatch keeps string values for the known keys and drops the rest.
func decodeTTSPatch(raw map[string]json.RawMessage) (tts.Config, []string) {
	var (
		patch   tts.Config
		ignored []string
	)
	fields := map[string]*string{
		"service": &patch.Service,
		"voice":   &patch.Voice,
		"model":   &patch.Model,
	}
	for key, val := range raw {
		dst, ok := fields[key]
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		if err := json.Unmarshal(val, dst); err != nil {
			ignored = append(ignored, key)
		}
	}
	return patch, ignored
}

type StateMessage struct {
	Type  MessageType `json:"type"`
	State string      `json:"state"`
}

type TranscriptMessage struct {
	Type  MessageType `json:"type"`
	Text  string      `json:"text"`
	Final bool        `json:"final"`
}

type ResponseMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

// AudioMessage carries synthesized speech, base64 encoded.
type AudioMessage struct {
	Type   MessageType `json:"type"`
	Data   string      `json:"data"`
	Format string      `json:"format"`
}

type CommandMessage struct {
	Type   MessageType `json:"type"`
	Action string      `json:"action"`
}

type TTSConfigMessage struct {
	Type      MessageType `json:"type"`
	TTSConfig tts.Config  `json:"ttsConfig"`
}

// ErrorMessage contains error information
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}
