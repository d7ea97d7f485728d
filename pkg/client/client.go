package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matflow/matflow/internal/flow"
)

// CatalogBuilder provides a fluent API for building material catalogs.
// Use it to define the materials a matflow server should know about,
// then Build and feed the config to the engine or a catalog file.
type CatalogBuilder struct {
	name      string
	materials []*MaterialBuilder
}

// NewCatalog creates a new catalog builder with the given name.
func NewCatalog(name string) *CatalogBuilder {
	return &CatalogBuilder{
		name:      name,
		materials: make([]*MaterialBuilder, 0),
	}
}

// Material adds a material definition to the catalog.
func (cb *CatalogBuilder) Material(mb *MaterialBuilder) *CatalogBuilder {
	cb.materials = append(cb.materials, mb)
	return cb
}

// Build converts the builder to a CatalogConfig.
func (cb *CatalogBuilder) Build() flow.CatalogConfig {
	materials := make([]flow.MaterialConfig, 0, len(cb.materials))
	for _, mb := range cb.materials {
		materials = append(materials, mb.Build())
	}

	return flow.CatalogConfig{
		Name:      cb.name,
		Materials: materials,
	}
}

// MaterialBuilder provides a fluent API for building one material config.
// Unset fields default to a neutral mid-weight granular material.
type MaterialBuilder struct {
	id         string
	name       string
	category   string
	properties flow.Properties
	tags       []string
	confidence float64
}

// NewMaterial creates a new material builder with the given ID.
// The name defaults to the ID but can be overridden with Name.
func NewMaterial(id string) *MaterialBuilder {
	return &MaterialBuilder{
		id:       id,
		name:     id,
		category: flow.CategoryGranular,
		properties: flow.Properties{
			Density:    1.5,
			Friction:   0.97,
			Elasticity: 0.3,
			Size:       3,
			Color:      "#999999",
		},
		confidence: 0.8,
	}
}

// Name sets the human-readable name of the material.
func (mb *MaterialBuilder) Name(name string) *MaterialBuilder {
	mb.name = name
	return mb
}

// Category sets the material category, which drives the spawn count.
func (mb *MaterialBuilder) Category(category string) *MaterialBuilder {
	mb.category = category
	return mb
}

// Density sets the material density.
func (mb *MaterialBuilder) Density(density float64) *MaterialBuilder {
	mb.properties.Density = density
	return mb
}

// Friction sets the per-tick velocity retention factor, within [0,1].
func (mb *MaterialBuilder) Friction(friction float64) *MaterialBuilder {
	mb.properties.Friction = friction
	return mb
}

// Elasticity sets the material elasticity, within [0,1].
func (mb *MaterialBuilder) Elasticity(elasticity float64) *MaterialBuilder {
	mb.properties.Elasticity = elasticity
	return mb
}

// Size sets the particle radius.
func (mb *MaterialBuilder) Size(size float64) *MaterialBuilder {
	mb.properties.Size = size
	return mb
}

// Color sets the particle color as a "#rrggbb" hex string.
func (mb *MaterialBuilder) Color(color string) *MaterialBuilder {
	mb.properties.Color = color
	return mb
}

// Tags sets free-form tags on the material.
func (mb *MaterialBuilder) Tags(tags ...string) *MaterialBuilder {
	mb.tags = tags
	return mb
}

// Confidence sets the catalog confidence, within [0,1].
func (mb *MaterialBuilder) Confidence(confidence float64) *MaterialBuilder {
	mb.confidence = confidence
	return mb
}

// Build converts the builder to a MaterialConfig.
func (mb *MaterialBuilder) Build() flow.MaterialConfig {
	return flow.MaterialConfig{
		ID:         mb.id,
		Name:       mb.name,
		Category:   mb.category,
		Properties: mb.properties,
		Tags:       mb.tags,
		Confidence: mb.confidence,
	}
}

// Client is a typed HTTP client for a matflow server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Materials lists the server's material catalog.
func (c *Client) Materials(ctx context.Context) ([]flow.Material, error) {
	var out struct {
		Materials []flow.Material `json:"materials"`
	}
	if err := c.do(ctx, http.MethodGet, "/materials", nil, &out); err != nil {
		return nil, err
	}
	return out.Materials, nil
}

// Material fetches one material by ID.
func (c *Client) Material(ctx context.Context, id string) (flow.Material, error) {
	var m flow.Material
	err := c.do(ctx, http.MethodGet, "/materials/"+url.PathEscape(id), nil, &m)
	return m, err
}

// Classify submits pixel statistics and returns the best catalog match.
func (c *Client) Classify(ctx context.Context, stats flow.PixelStats) (flow.MatchResult, error) {
	var result flow.MatchResult
	err := c.do(ctx, http.MethodPost, "/materials/classify", stats, &result)
	return result, err
}

// CreateWorld creates a world. Empty id lets the server assign one; zero
// width/height use the server defaults. Returns the world's ID.
func (c *Client) CreateWorld(ctx context.Context, id string, width, height float64) (string, error) {
	body := map[string]any{"id": id, "width": width, "height": height}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/worlds", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ListWorlds returns the IDs of all worlds on the server.
func (c *Client) ListWorlds(ctx context.Context) ([]string, error) {
	var out struct {
		Worlds []string `json:"worlds"`
	}
	if err := c.do(ctx, http.MethodGet, "/worlds", nil, &out); err != nil {
		return nil, err
	}
	return out.Worlds, nil
}

// DeleteWorld stops and removes a world.
func (c *Client) DeleteWorld(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/worlds/"+url.PathEscape(id), nil, nil)
}

// Spawn pours a material into a world, optionally patching the step
// parameters first. Returns the number of particles created.
func (c *Client) Spawn(ctx context.Context, worldID, materialID string, params *flow.ParamsPatch) (int, error) {
	body := map[string]any{"material_id": materialID}
	if params != nil {
		body["params"] = params
	}
	var out struct {
		ParticleCount int `json:"particle_count"`
	}
	if err := c.do(ctx, http.MethodPost, c.worldPath(worldID, "spawn"), body, &out); err != nil {
		return 0, err
	}
	return out.ParticleCount, nil
}

// SetParams patches a world's step parameters and returns the result.
func (c *Client) SetParams(ctx context.Context, worldID string, patch flow.ParamsPatch) (flow.StepParams, error) {
	var params flow.StepParams
	err := c.do(ctx, http.MethodPost, c.worldPath(worldID, "params"), patch, &params)
	return params, err
}

// Tick advances a world by a single step.
func (c *Client) Tick(ctx context.Context, worldID string) error {
	return c.do(ctx, http.MethodPost, c.worldPath(worldID, "tick"), nil, nil)
}

// Start begins auto-ticking a world at the given interval.
func (c *Client) Start(ctx context.Context, worldID string, interval time.Duration) error {
	path := c.worldPath(worldID, "start")
	if interval > 0 {
		path += "?interval=" + strconv.Itoa(int(interval.Milliseconds()))
	}
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// Stop stops auto-ticking a world.
func (c *Client) Stop(ctx context.Context, worldID string) error {
	return c.do(ctx, http.MethodPost, c.worldPath(worldID, "stop"), nil, nil)
}

// Particles fetches a world's current tick and particle set.
func (c *Client) Particles(ctx context.Context, worldID string) (int64, []flow.Particle, error) {
	var out struct {
		Tick      int64           `json:"tick"`
		Particles []flow.Particle `json:"particles"`
	}
	if err := c.do(ctx, http.MethodGet, c.worldPath(worldID, "particles"), nil, &out); err != nil {
		return 0, nil, err
	}
	return out.Tick, out.Particles, nil
}

// SaveSnapshot asks the server to persist a world snapshot. Returns the
// server-side snapshot path.
func (c *Client) SaveSnapshot(ctx context.Context, worldID string) (string, error) {
	var out struct {
		Path string `json:"path"`
	}
	if err := c.do(ctx, http.MethodPost, c.worldPath(worldID, "snapshot"), nil, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

// Snapshot fetches a world's stored snapshot.
func (c *Client) Snapshot(ctx context.Context, worldID string) (flow.WorldSnapshot, error) {
	var snapshot flow.WorldSnapshot
	err := c.do(ctx, http.MethodGet, c.worldPath(worldID, "snapshot"), nil, &snapshot)
	return snapshot, err
}

// RegisterWebhook registers a webhook streamer that receives frame events.
func (c *Client) RegisterWebhook(ctx context.Context, id, webhookURL string, headers map[string]string) error {
	config := map[string]any{"url": webhookURL}
	if len(headers) > 0 {
		h := make(map[string]any, len(headers))
		for k, v := range headers {
			h[k] = v
		}
		config["headers"] = h
	}
	body := map[string]any{"type": "webhook", "id": id, "config": config}
	return c.do(ctx, http.MethodPost, "/streamers", body, nil)
}

// UnregisterStreamer removes a registered streamer.
func (c *Client) UnregisterStreamer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/streamers/"+url.PathEscape(id), nil, nil)
}

// StreamFrames opens a websocket to the world's frame stream and returns a
// channel of frame events. The channel closes when the context is cancelled
// or the connection drops.
func (c *Client) StreamFrames(ctx context.Context, worldID string) (<-chan flow.FrameEvent, error) {
	wsURL := httpToWS(c.baseURL) + c.worldPath(worldID, "stream")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open frame stream: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	frames := make(chan flow.FrameEvent, 16)

	// Close the connection when the context ends so the read loop unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(frames)
		defer conn.Close()
		for {
			var event flow.FrameEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case frames <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return frames, nil
}

func (c *Client) worldPath(worldID, op string) string {
	return "/worlds/" + url.PathEscape(worldID) + "/" + op
}

// do performs one JSON request. A nil out discards the response body; a
// non-2xx status becomes an error carrying the body text.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cannot encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("cannot create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	return nil
}

// httpToWS rewrites an http(s) base URL to its ws(s) equivalent.
func httpToWS(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
