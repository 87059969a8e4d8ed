package ipc

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeHello, HelloMessage{Client: "engine"})
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Errorf("length prefix = %d, payload is %d bytes", got, buf.Len()-4)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != TypeHello || string(got.Data) != `{"client":"engine"}` {
		t.Errorf("ReadEnvelope = %s %s", got.Type, got.Data)
	}
}

func TestReadEnvelopeRejectsBadLength(t *testing.T) {
	for _, length := range []uint32{0, MaxFrameSize + 1} {
		var buf bytes.Buffer
		binary.Write(&buf, binary.LittleEndian, length)
		if _, err := ReadEnvelope(&buf); err == nil {
			t.Errorf("length %d accepted", length)
		}
	}
}

func TestReadEnvelopeTruncated(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(10))
	buf.WriteString(`{"ty`)
	if _, err := ReadEnvelope(&buf); err == nil {
		t.Error("truncated payload accepted")
	}
}

func TestServeDispatchesAndStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.sock")
	ln, err := Listen(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, func(c *Connection) {
			c.RegisterHandler(TypeHello, func(_ context.Context, env Envelope) (*Envelope, error) {
				ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok"})
				return &ack, err
			})
		})
	}()

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	// Unknown types are skipped without a reply.
	if err := WriteEnvelope(conn, Envelope{Type: "mystery", Data: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	hello, _ := NewEnvelope(TypeHello, HelloMessage{Client: "test"})
	if err := WriteEnvelope(conn, hello); err != nil {
		t.Fatal(err)
	}
	resp, err := ReadEnvelope(conn)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != TypeAck {
		t.Errorf("reply type = %q, want %q", resp.Type, TypeAck)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
