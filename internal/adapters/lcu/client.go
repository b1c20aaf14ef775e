// Package lcu talks to the locally running game client over its loopback
// REST API. Credentials come from the client's lockfile; the endpoint uses
// a self-signed certificate, so verification is disabled for this one
// loopback transport only.
package lcu

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	summonerPath = "/lol-summoner/v1/current-summoner"
	sessionPath  = "/lol-champ-select/v1/session"
	gameflowPath = "/lol-gameflow/v1/session"
	actionPath   = "/lol-champ-select/v1/session/actions/%d"
)

// Credentials hold what the lockfile provides to reach the local client.
type Credentials struct {
	Port     int
	Password string
}

// ParseLockfile parses the client lockfile content. The format is
// "name:pid:port:password:protocol".
func ParseLockfile(content string) (Credentials, error) {
	parts := strings.Split(strings.TrimSpace(content), ":")
	if len(parts) < 5 {
		return Credentials{}, fmt.Errorf("lcu: malformed lockfile: %d fields", len(parts))
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil {
		return Credentials{}, fmt.Errorf("lcu: lockfile port: %w", err)
	}
	return Credentials{Port: port, Password: parts[3]}, nil
}

// DiscoverCredentials reads the first existing lockfile from the given
// paths. With no paths it checks the conventional install locations.
func DiscoverCredentials(paths ...string) (Credentials, error) {
	if len(paths) == 0 {
		paths = defaultLockfilePaths()
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		creds, err := ParseLockfile(string(content))
		if err != nil {
			continue
		}
		return creds, nil
	}
	return Credentials{}, ErrClientNotFound
}

func defaultLockfilePaths() []string {
	return []string{
		`C:\Riot Games\League of Legends\lockfile`,
		os.ExpandEnv(`${LOCALAPPDATA}\Riot Games\League of Legends\lockfile`),
	}
}

// Client is a thin typed wrapper over the loopback API.
type Client struct {
	baseURL  string
	password string
	http     *http.Client
	log      logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBaseURL overrides the loopback address derived from the credentials.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// NewClient creates a client for the given credentials.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:  fmt.Sprintf("https://127.0.0.1:%d", creds.Port),
		password: creds.Password,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // self-signed loopback cert
			},
		},
		log: logger.Get().Named("lcu"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect verifies the credentials by fetching the current summoner.
func (c *Client) Connect(ctx context.Context) error {
	var summoner struct {
		DisplayName string `json:"displayName"`
		GameName    string `json:"gameName"`
	}
	if err := c.get(ctx, summonerPath, &summoner); err != nil {
		return fmt.Errorf("lcu: connect: %w", err)
	}
	name := summoner.DisplayName
	if name == "" {
		name = summoner.GameName
	}
	c.log.Info(ctx, "connected to local client", logger.String("summoner", name))
	return nil
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// gameflowSession carries the one field the monitor needs.
type gameflowSession struct {
	Phase string `json:"phase"`
}

// FlowPhase maps the client's flow phase onto the coarse phases the
// monitor acts on. Anything unrecognized counts as idle.
func (c *Client) FlowPhase(ctx context.Context) (model.FlowPhase, error) {
	var flow gameflowSession
	if err := c.get(ctx, gameflowPath, &flow); err != nil {
		if errors.Is(err, ErrNotInSession) {
			return model.FlowIdle, nil
		}
		return model.FlowIdle, err
	}
	switch flow.Phase {
	case "ReadyCheck":
		return model.FlowReadyCheck, nil
	case "ChampSelect":
		return model.FlowDrafting, nil
	case "InProgress", "GameStart":
		return model.FlowInGame, nil
	default:
		return model.FlowIdle, nil
	}
}

// Wire shapes of the champ-select session. The aggregate bans object is
// deliberately absent: completed ban actions are the only trusted source.
type sessionAction struct {
	ID          int    `json:"id"`
	ActorCellID int    `json:"actorCellId"`
	ChampionID  int    `json:"championId"`
	Type        string `json:"type"`
	Completed   bool   `json:"completed"`
}

type sessionSeat struct {
	CellID     int `json:"cellId"`
	ChampionID int `json:"championId"`
}

type champSelectSession struct {
	Timer struct {
		Phase string `json:"phase"`
	} `json:"timer"`
	LocalPlayerCellID int               `json:"localPlayerCellId"`
	MyTeam            []sessionSeat     `json:"myTeam"`
	TheirTeam         []sessionSeat     `json:"theirTeam"`
	Actions           [][]sessionAction `json:"actions"`
}

// GetSnapshot fetches and normalizes the current draft session. Returns
// ErrNotInSession outside champion select.
func (c *Client) GetSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var session champSelectSession
	if err := c.get(ctx, sessionPath, &session); err != nil {
		return nil, err
	}

	snap := &model.Snapshot{
		Phase:        session.Timer.Phase,
		LocalActorID: session.LocalPlayerCellID,
	}
	for _, seat := range session.MyTeam {
		snap.AllyRoster = append(snap.AllyRoster, model.RosterSlot{
			CellID:      seat.CellID,
			CandidateID: seat.ChampionID,
		})
	}
	for _, seat := range session.TheirTeam {
		snap.EnemyRoster = append(snap.EnemyRoster, model.RosterSlot{
			CellID:      seat.CellID,
			CandidateID: seat.ChampionID,
		})
	}

	// Action groups arrive as a list of turn batches; flattening preserves
	// the reported order. Non pick/ban entries (reveals etc.) are dropped.
	for _, group := range session.Actions {
		for _, action := range group {
			var kind model.ActionKind
			switch action.Type {
			case "pick":
				kind = model.ActionPick
			case "ban":
				kind = model.ActionBan
			default:
				continue
			}
			snap.Actions = append(snap.Actions, model.ActionRecord{
				Kind:        kind,
				ActorID:     action.ActorCellID,
				CandidateID: action.ChampionID,
				Completed:   action.Completed,
			})
		}
	}
	return snap, nil
}

// ProposeSelection hovers a candidate on the local actor's pending pick
// action. The action stays incomplete; locking in remains the player's
// decision.
func (c *Client) ProposeSelection(ctx context.Context, candidateID int) error {
	var session champSelectSession
	if err := c.get(ctx, sessionPath, &session); err != nil {
		return err
	}

	actionID := -1
	for _, group := range session.Actions {
		for _, action := range group {
			if action.ActorCellID == session.LocalPlayerCellID &&
				!action.Completed && action.Type == "pick" {
				actionID = action.ID
				break
			}
		}
		if actionID != -1 {
			break
		}
	}
	if actionID == -1 {
		return ErrNoPendingAction
	}

	body := map[string]any{
		"championId": candidateID,
		"completed":  false,
		"type":       "pick",
	}
	return c.patch(ctx, fmt.Sprintf(actionPath, actionID), body)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	req.SetBasicAuth("riot", c.password)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn(req.Context(), "failed to close response body", logger.Error(err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotInSession
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("lcu: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
