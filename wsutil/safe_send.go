package wsutil

import (
	"encoding/json"
	"log/slog"
)

// SafeSend hands data to a client's send channel. The channel itself is never
// closed; done is closed once the client is gone, after which data is dropped.
// A full buffer also drops the message. A nil done never closes.
func SafeSend(ch chan<- []byte, done <-chan struct{}, data []byte) {
	select {
	case <-done:
		return
	default:
	}
	select {
	case ch <- data:
	case <-done:
	default:
		slog.Warn("send buffer full, dropping message", "tag", "wsutil")
	}
}

// SendJSON marshals v and hands it to SafeSend.
func SendJSON(ch chan<- []byte, done <-chan struct{}, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal outbound message", "tag", "wsutil", "err", err)
		return
	}
	SafeSend(ch, done, data)
}
