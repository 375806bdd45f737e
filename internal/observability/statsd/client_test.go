package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  storefront.cli  ": "storefront.cli",
		"..foo..":            "foo",
		".":                  "",
		"":                   "",
	}
	for input, want := range tests {
		if got := sanitizePrefix(input); got != want {
			t.Fatalf("sanitizePrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" api/request ": "api_request",
		"foo..bar":      "foo.bar",
		"a:b|c":         "a_b_c",
		"   ":           "",
	}
	for input, want := range tests {
		if got := normalizeMetricName(input); got != want {
			t.Fatalf("normalizeMetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " app ": " storefront "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	got := formatTags(global, local)
	want := "|#app:storefront,env:stage,result:success"
	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := formatTags(nil, nil); got != "" {
		t.Fatalf("formatTags(nil, nil) = %q, want empty string", got)
	}
}

func listen(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen unavailable: %v", err)
	}
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

func readPacket(t *testing.T, pc net.PacketConn) string {
	t.Helper()
	buf := make([]byte, 4096)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	return string(buf[:n])
}

func TestClient_BatchesUntilFlush(t *testing.T) {
	pc := listen(t)
	client, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "storefront",
		GlobalTags: map[string]string{"env": "test"},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()

	client.Count("api.request", 1, map[string]string{"status": "200"})
	client.Timing("api.request.duration", 1500*time.Microsecond, nil)
	client.Flush()

	got := readPacket(t, pc)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines in one datagram, got %q", got)
	}
	if lines[0] != "storefront.api.request:1|c|#env:test,status:200" {
		t.Fatalf("unexpected counter line %q", lines[0])
	}
	if lines[1] != "storefront.api.request.duration:1.5|ms|#env:test" {
		t.Fatalf("unexpected timing line %q", lines[1])
	}
}

func TestClient_SplitsAtMaxPacket(t *testing.T) {
	pc := listen(t)
	client, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), MaxPacket: 1})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()

	client.Gauge("a", 1, nil)
	client.Gauge("b", 2, nil)

	if got := readPacket(t, pc); got != "a:1|g" {
		t.Fatalf("first packet = %q", got)
	}
	if got := readPacket(t, pc); got != "b:2|g" {
		t.Fatalf("second packet = %q", got)
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	pc := listen(t)
	client, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String()})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}
	client.Count("x", 1, nil)
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if got := readPacket(t, pc); got != "x:1|c" {
		t.Fatalf("Close did not flush, got %q", got)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}

	var nilClient *Client
	nilClient.Count("x", 1, nil)
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClient_DisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
	client.Count("ignored", 1, nil)
}

func TestNewClient_DialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}
