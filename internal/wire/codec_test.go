package wire

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

func TestCodecWriteReadMessage(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf, &buf)

	m := &Message{Tag: TagInvoke, TxnID: 1, ObjectName: "counter", Method: "increment"}
	if err := c.WriteMessage(m, nil); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	got, err := c.ReadMessage(nil)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if got.ObjectName != "counter" || got.Method != "increment" {
		t.Fatalf("codec round trip mismatch: got %+v", got)
	}
}

func TestCodecReadMessageEOF(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf, &buf)
	if _, err := c.ReadMessage(nil); err != io.EOF {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}

func TestCodecWriteMessageConcurrentSafe(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_ = c.WriteMessage(&Message{Tag: TagClose, TxnID: id}, nil)
		}(uint64(i))
	}
	wg.Wait()

	count := 0
	for {
		_, err := c.ReadMessage(nil)
		if err != nil {
			break
		}
		count++
	}
	if count != 20 {
		t.Fatalf("expected 20 messages, read %d", count)
	}
}
