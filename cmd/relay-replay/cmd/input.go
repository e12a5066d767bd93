package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/message"
)

const maxLineSize = 10 * 1024 * 1024

type inputPart struct {
	ContentID string `json:"content_id"`
	Content   string `json:"content"`
}

// inputMessage is a single line of the replay input, for example:
//
//	{"uuid": "1", "parts": [{"content_id": "A", "content": "x"}], "headers": {"reply_to": "queue://orders"}}
type inputMessage struct {
	UUID    string                 `json:"uuid"`
	Parts   []inputPart            `json:"parts"`
	Headers map[string]interface{} `json:"headers"`
}

// readMessages reads one JSON message per line, blank lines are skipped.
func readMessages(in io.Reader) ([]*message.Message, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var messages []*message.Message
	line := 0

	for scanner.Scan() {
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		msg, err := decodeMessage(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid message at line %d", line)
		}

		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot read input")
	}

	return messages, nil
}

func decodeMessage(raw []byte) (*message.Message, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var in inputMessage
	if err := decoder.Decode(&in); err != nil {
		return nil, errors.Wrap(err, "cannot decode message")
	}

	if in.UUID == "" {
		in.UUID = relay.NewUUID()
	}

	msg := message.NewMessage(in.UUID)
	for _, p := range in.Parts {
		msg.AddPart(p.ContentID, p.Content)
	}

	for name, value := range in.Headers {
		headerValue, err := decodeHeaderValue(value)
		if err != nil {
			return nil, errors.Wrapf(err, "header %s", name)
		}
		msg.Headers[name] = headerValue
	}

	return msg, nil
}

func decodeHeaderValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		switch {
		case strings.HasPrefix(v, "queue://"):
			return message.Queue(strings.TrimPrefix(v, "queue://")), nil
		case strings.HasPrefix(v, "topic://"):
			return message.Topic(strings.TrimPrefix(v, "topic://")), nil
		default:
			return v, nil
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		return v.String(), nil
	case bool:
		return v, nil
	default:
		return nil, errors.Errorf("unsupported header value %#v", value)
	}
}
