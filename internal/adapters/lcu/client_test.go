package lcu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wapmorty/draftcoach/internal/domain/model"
	"github.com/wapmorty/draftcoach/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)
	return NewClient(
		Credentials{Port: 1, Password: "secret"},
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	)
}

func TestParseLockfile(t *testing.T) {
	Convey("Given lockfile contents", t, func() {
		Convey("When the format is valid", func() {
			creds, err := ParseLockfile("LeagueClient:1234:50712:hunter2:https\n")

			So(err, ShouldBeNil)
			So(creds.Port, ShouldEqual, 50712)
			So(creds.Password, ShouldEqual, "hunter2")
		})

		Convey("When fields are missing", func() {
			_, err := ParseLockfile("LeagueClient:1234")
			So(err, ShouldNotBeNil)
		})

		Convey("When the port is not numeric", func() {
			_, err := ParseLockfile("LeagueClient:1234:PORT:pw:https")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGetSnapshot(t *testing.T) {
	Convey("Given a session endpoint", t, func() {
		session := map[string]any{
			"timer":             map[string]any{"phase": "BAN_PICK"},
			"localPlayerCellId": 2,
			"myTeam": []map[string]any{
				{"cellId": 0, "championId": 157},
				{"cellId": 2, "championId": 0},
			},
			"theirTeam": []map[string]any{
				{"cellId": 5, "championId": 238},
			},
			"actions": [][]map[string]any{
				{
					{"id": 1, "actorCellId": 0, "championId": 84, "type": "ban", "completed": true},
					{"id": 2, "actorCellId": 5, "championId": 0, "type": "ten_bans_reveal", "completed": false},
				},
				{
					{"id": 3, "actorCellId": 2, "championId": 0, "type": "pick", "completed": false},
				},
			},
		}
		var gotAuth string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, gotAuth, _ = r.BasicAuth()
			if r.URL.Path != "/lol-champ-select/v1/session" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(session)
		}))

		Convey("When fetching a snapshot", func() {
			snap, err := client.GetSnapshot(context.Background())

			Convey("Then rosters and actions are normalized in order", func() {
				So(err, ShouldBeNil)
				So(snap.LocalActorID, ShouldEqual, 2)
				So(snap.Phase, ShouldEqual, "BAN_PICK")
				So(snap.AllyRoster, ShouldHaveLength, 2)
				So(snap.AllyRoster[0].CandidateID, ShouldEqual, 157)
				So(snap.EnemyRoster, ShouldHaveLength, 1)

				So(snap.Actions, ShouldHaveLength, 2)
				So(snap.Actions[0].Kind, ShouldEqual, model.ActionBan)
				So(snap.Actions[0].Completed, ShouldBeTrue)
				So(snap.Actions[1].Kind, ShouldEqual, model.ActionPick)
				So(snap.Actions[1].ActorID, ShouldEqual, 2)
			})

			Convey("Then basic auth uses the lockfile password", func() {
				So(gotAuth, ShouldEqual, "secret")
			})
		})
	})

	Convey("Given no active session", t, func() {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		Convey("When fetching a snapshot", func() {
			_, err := client.GetSnapshot(context.Background())
			So(err, ShouldEqual, ErrNotInSession)
		})
	})
}

func TestFlowPhase(t *testing.T) {
	Convey("Given a gameflow endpoint", t, func() {
		phase := ""
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if phase == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"phase": phase})
		}))
		ctx := context.Background()

		cases := map[string]model.FlowPhase{
			"ChampSelect": model.FlowDrafting,
			"ReadyCheck":  model.FlowReadyCheck,
			"InProgress":  model.FlowInGame,
			"Lobby":       model.FlowIdle,
			"None":        model.FlowIdle,
		}
		for reported, want := range cases {
			phase = reported
			got, err := client.FlowPhase(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		Convey("When the endpoint has no session at all", func() {
			phase = ""
			got, err := client.FlowPhase(ctx)

			So(err, ShouldBeNil)
			So(got, ShouldEqual, model.FlowIdle)
		})
	})
}

func TestProposeSelection(t *testing.T) {
	Convey("Given a session with a pending local pick action", t, func() {
		session := map[string]any{
			"timer":             map[string]any{"phase": "BAN_PICK"},
			"localPlayerCellId": 2,
			"myTeam":            []map[string]any{{"cellId": 2, "championId": 0}},
			"theirTeam":         []map[string]any{{"cellId": 5, "championId": 0}},
			"actions": [][]map[string]any{
				{
					{"id": 7, "actorCellId": 5, "championId": 0, "type": "pick", "completed": false},
					{"id": 8, "actorCellId": 2, "championId": 0, "type": "pick", "completed": false},
				},
			},
		}
		var patched struct {
			path string
			body map[string]any
		}
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				_ = json.NewEncoder(w).Encode(session)
			case http.MethodPatch:
				patched.path = r.URL.Path
				_ = json.NewDecoder(r.Body).Decode(&patched.body)
				w.WriteHeader(http.StatusNoContent)
			}
		}))

		Convey("When proposing a selection", func() {
			err := client.ProposeSelection(context.Background(), 157)

			Convey("Then the local actor's action is patched without locking", func() {
				So(err, ShouldBeNil)
				So(patched.path, ShouldEqual, "/lol-champ-select/v1/session/actions/8")
				So(patched.body["championId"], ShouldEqual, float64(157))
				So(patched.body["completed"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a session where the local actor has nothing pending", t, func() {
		session := map[string]any{
			"localPlayerCellId": 2,
			"actions": [][]map[string]any{
				{{"id": 8, "actorCellId": 2, "championId": 1, "type": "pick", "completed": true}},
			},
		}
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(session)
		}))

		Convey("When proposing a selection", func() {
			err := client.ProposeSelection(context.Background(), 157)
			So(err, ShouldEqual, ErrNoPendingAction)
		})
	})
}
