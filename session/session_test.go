package session

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestDialAcceptRoundTrip(t *testing.T) {
	ln, err := ListenWithOptions("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("ListenWithOptions: %v", err)
	}
	defer ln.Close()

	clientDone := make(chan error, 1)
	var client io.ReadWriteCloser
	go func() {
		c, err := Dial(ln.Addr().String(), nil)
		if err != nil {
			clientDone <- err
			return
		}
		client = c
		clientDone <- nil
	}()

	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer server.Close()

	if err := <-clientDone; err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	payload := []byte("hello over an unreliable datagram link")
	go func() {
		client.Write(payload)
	}()

	got := make([]byte, len(payload))
	if err := readFull(server, got, 5*time.Second); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestConnCloseSignalsEOF(t *testing.T) {
	ln, err := ListenWithOptions("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("ListenWithOptions: %v", err)
	}
	defer ln.Close()

	clientDone := make(chan *Conn, 1)
	go func() {
		c, err := Dial(ln.Addr().String(), nil)
		if err != nil {
			t.Errorf("Dial: %v", err)
			clientDone <- nil
			return
		}
		clientDone <- c
	}()

	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer server.Close()

	client := <-clientDone
	if client == nil {
		t.Fatal("client dial failed")
	}
	client.Close()

	buf := make([]byte, 16)
	server.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, err := server.Read(buf)
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("server read: %v", err)
		}
	}
}

func readFull(r io.Reader, buf []byte, timeout time.Duration) error {
	type deadliner interface {
		SetReadDeadline(time.Time) error
	}
	if d, ok := r.(deadliner); ok {
		d.SetReadDeadline(time.Now().Add(timeout))
	}
	_, err := io.ReadFull(r, buf)
	return err
}
