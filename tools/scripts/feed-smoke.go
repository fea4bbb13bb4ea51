// Package main provides a CI-friendly smoke test for the sampleapp live feed.
//
// It validates:
//   - sign-up over the JSON API sets the remember_token cookie
//   - the feed socket rejects an anonymous upgrade
//   - the signed-in upgrade receives hello
//   - a created micropost arrives as micropost.created
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const maxReadBytes = 1 << 20 // 1MiB

type feedEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	Micropost *struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	} `json:"micropost"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		origin  = flag.String("origin", "http://localhost", "Origin header to send (browser-like WS handshake)")
		text    = flag.String("text", "hello from the smoke test", "Micropost content")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	base, err := validateBaseURL(*baseURL)
	if err != nil {
		fatalf("invalid -url: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: *timeout}

	root := context.Background()

	mustRejectAnonymous(root, base, *origin, *timeout)

	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	userID := mustSignUp(client, base, email)
	if *verbose {
		fmt.Printf("signed up: id=%s email=%s\n", userID, email)
	}

	conn := mustConnect(root, base, jar, *origin, *timeout)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	hello := mustReadType(root, conn, "hello", *timeout)
	if hello.UserID != userID {
		fatalf("hello user_id mismatch: got=%q want=%q", hello.UserID, userID)
	}

	postID := mustCreateMicropost(client, base, *text)

	ev := mustReadType(root, conn, "micropost.created", *timeout)
	if ev.Micropost == nil || ev.Micropost.ID != postID || ev.Micropost.Content != *text {
		fatalf("micropost.created mismatch: %+v", ev.Micropost)
	}

	fmt.Printf("OK: user_id=%s micropost_id=%s\n", userID, postID)
}

func validateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func wsURL(base *url.URL) string {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws/feed"
	return u.String()
}

func mustRejectAnonymous(parent context.Context, base *url.URL, origin string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, wsURL(base), &websocket.DialOptions{HTTPHeader: originHeader(origin)})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		fatalf("anonymous upgrade was accepted")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		fatalf("anonymous upgrade: want 401, got %v", statusOf(resp))
	}
}

func mustSignUp(client *http.Client, base *url.URL, email string) string {
	body := map[string]string{
		"name":                  "Smoke Test",
		"email":                 email,
		"password":              "foobar",
		"password_confirmation": "foobar",
	}
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	mustPostJSON(client, base.JoinPath("/users").String(), body, http.StatusCreated, &out)
	if out.User.ID == "" {
		fatalf("sign-up response missing user.id")
	}
	return out.User.ID
}

func mustCreateMicropost(client *http.Client, base *url.URL, content string) string {
	var out struct {
		Micropost struct {
			ID string `json:"id"`
		} `json:"micropost"`
	}
	mustPostJSON(client, base.JoinPath("/microposts").String(), map[string]string{"content": content}, http.StatusCreated, &out)
	if out.Micropost.ID == "" {
		fatalf("micropost response missing micropost.id")
	}
	return out.Micropost.ID
}

func mustPostJSON(client *http.Client, target string, in any, wantStatus int, out any) {
	raw, err := json.Marshal(in)
	if err != nil {
		fatalf("marshal: %v", err)
	}
	resp, err := client.Post(target, "application/json", strings.NewReader(string(raw)))
	if err != nil {
		fatalf("POST %s: %v", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		fatalf("POST %s: want %d, got %d", target, wantStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		fatalf("POST %s: decode: %v", target, err)
	}
}

func mustConnect(parent context.Context, base *url.URL, jar http.CookieJar, origin string, stepTimeout time.Duration) *websocket.Conn {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	h := originHeader(origin)
	for _, c := range jar.Cookies(base) {
		h.Add("Cookie", c.String())
	}

	conn, resp, err := websocket.Dial(ctx, wsURL(base), &websocket.DialOptions{HTTPHeader: h})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect: %v (status %v)", err, statusOf(resp))
	}
	conn.SetReadLimit(maxReadBytes)
	return conn
}

func mustReadType(parent context.Context, conn *websocket.Conn, want string, stepTimeout time.Duration) feedEvent {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		var ev feedEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			fatalf("read %s: %v", want, err)
		}
		if ev.Type == want {
			return ev
		}
	}
}

func originHeader(origin string) http.Header {
	h := http.Header{}
	if strings.TrimSpace(origin) != "" {
		h.Set("Origin", origin)
	}
	return h
}

func statusOf(resp *http.Response) any {
	if resp == nil {
		return "no response"
	}
	return resp.StatusCode
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
