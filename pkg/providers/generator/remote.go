package generator

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/orchestrator"
)

// Remote talks to a model server over a websocket. One request is in flight
// at a time; the connection is reused between calls.
type Remote struct {
	apiKey     string
	host       string
	scheme     string
	path       string
	sampleRate int
	mu         sync.Mutex
	conn       *websocket.Conn
}

type generateRequest struct {
	Prompt            string `json:"prompt"`
	Secs              int    `json:"secs"`
	SampleRate        int    `json:"sample_rate"`
	ContinuitySamples int    `json:"continuity_samples"`
}

// NewRemote parses rawURL (ws:// or wss://). sampleRate is what the server
// produces; 0 means orchestrator.DefaultSampleRate.
func NewRemote(rawURL, apiKey string, sampleRate int) (*Remote, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid generator url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid generator url %q: scheme must be ws or wss", rawURL)
	}
	if sampleRate <= 0 {
		sampleRate = orchestrator.DefaultSampleRate
	}
	path := u.Path
	if path == "" {
		path = "/ws"
	}
	return &Remote{
		apiKey:     apiKey,
		host:       u.Host,
		scheme:     u.Scheme,
		path:       path,
		sampleRate: sampleRate,
	}, nil
}

func (g *Remote) getConn(ctx context.Context) (*websocket.Conn, error) {
	if g.conn != nil {
		return g.conn, nil
	}

	u := url.URL{Scheme: g.scheme, Host: g.host, Path: g.path}
	if g.apiKey != "" {
		u.RawQuery = "api_key=" + url.QueryEscape(g.apiKey)
	}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to generator: %w", err)
	}

	conn.SetReadLimit(64 * 1024 * 1024)

	g.conn = conn
	return conn, nil
}

func (g *Remote) Generate(ctx context.Context, prompt string, secs int, continuity []float32) ([]float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	conn, err := g.getConn(ctx)
	if err != nil {
		return nil, err
	}

	req := generateRequest{
		Prompt:            prompt,
		Secs:              secs,
		SampleRate:        g.sampleRate,
		ContinuitySamples: len(continuity),
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		g.dropConn(conn, "failed to write json")
		return nil, fmt.Errorf("failed to send generation request: %w", err)
	}
	if len(continuity) > 0 {
		if err := conn.Write(ctx, websocket.MessageBinary, EncodeFloat32(continuity)); err != nil {
			g.dropConn(conn, "failed to write continuity")
			return nil, fmt.Errorf("failed to send continuity: %w", err)
		}
	}

	samples := make([]float32, 0, secs*g.sampleRate)
	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			g.dropConn(conn, "failed to read")
			return nil, fmt.Errorf("failed to read from generator: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			decoded, err := DecodeFloat32(payload)
			if err != nil {
				g.dropConn(conn, "malformed frame")
				return nil, err
			}
			samples = append(samples, decoded...)
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return samples, nil
			}
			if strings.HasPrefix(msg, "ERR:") {
				return nil, fmt.Errorf("generator error: %s", strings.TrimSpace(msg[4:]))
			}
		}
	}
}

func (g *Remote) dropConn(conn *websocket.Conn, reason string) {
	g.conn = nil
	conn.Close(websocket.StatusAbnormalClosure, reason)
}

func (g *Remote) SampleRate() int {
	return g.sampleRate
}

func (g *Remote) Name() string {
	return "remote"
}

func (g *Remote) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn != nil {
		err := g.conn.Close(websocket.StatusNormalClosure, "")
		g.conn = nil
		return err
	}
	return nil
}

// EncodeFloat32 packs samples as little-endian IEEE 754 floats.
func EncodeFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// DecodeFloat32 is the inverse of EncodeFloat32.
func DecodeFloat32(payload []byte) ([]float32, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("malformed sample frame: %d bytes is not a multiple of 4", len(payload))
	}
	out := make([]float32, len(payload)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return out, nil
}
