package config_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/wapmorty/draftcoach/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 1000)
			convey.So(cfg.MinPickrate, convey.ShouldEqual, 0.5)
			convey.So(cfg.MinMatchupGames, convey.ShouldEqual, 200)
			convey.So(cfg.MinCompetitiveGames, convey.ShouldEqual, 10_000)
			convey.So(cfg.SynergiesEnabled, convey.ShouldBeTrue)
			convey.So(cfg.SynergyMultiplier, convey.ShouldEqual, 0.3)
			convey.So(cfg.AutoDispatch, convey.ShouldBeFalse)
			convey.So(cfg.MaxBans, convey.ShouldEqual, 10)
		})
	})
}
