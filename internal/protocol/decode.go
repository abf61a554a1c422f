package protocol

import (
	"github.com/rs/zerolog/log"
)

// Decode validates the preamble, reads the command code and decodes the
// payload it announces. Every failure is a *DecodeError.
func Decode(frame []byte) (*Message, error) {
	msg, err := decode(frame)
	if err != nil {
		kind, _ := KindOf(err)
		log.Debug().
			Int("frame_bytes", len(frame)).
			Str("kind", kind.String()).
			Err(err).
			Msg("protocol.Decode failed")
		return nil, err
	}
	log.Debug().
		Str("command", msg.Command.String()).
		Int("frame_bytes", len(frame)).
		Int("consumed", msg.Consumed).
		Msg("protocol.Decode ok")
	return msg, nil
}

func decode(frame []byte) (*Message, error) {
	if !Validate(frame) {
		return nil, &DecodeError{Kind: KindInvalidMessage}
	}

	r := NewReader(frame)
	if _, err := r.ReadFloat64("preamble"); err != nil {
		return nil, err
	}
	code, err := r.ReadInt32("command")
	if err != nil {
		return nil, err
	}

	msg := &Message{Command: Command(code)}
	switch msg.Command {
	case CommandLoad:
		msg.Load, err = parseLoad(r)
	case CommandPredict:
		msg.Predict, err = parsePredict(r)
	default:
		return nil, &DecodeError{Kind: KindUnknownCommand, Field: "command", Offset: PreambleSize, Code: code}
	}
	if err != nil {
		return nil, err
	}
	msg.Consumed = r.Offset()
	return msg, nil
}
