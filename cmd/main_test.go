package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/fanpulse/internal/app"
	"github.com/okian/fanpulse/internal/config"
	"github.com/okian/fanpulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const feed = `{"events": [
  {"id":"ars-che","sport":"football","date":"2026-02-14T15:00:00","location":{"lat":51.5549,"lng":-0.1084}},
  {"id":"qpr-mil","sport":"football","date":"2026-02-14T15:00:00","location":{"lat":51.5549,"lng":-0.1084}},
  {"id":"tot-whu","sport":"football","date":"2026-02-13T20:00:00","location":{"lat":51.5549,"lng":-0.1084}},
  {"id":"ascot","sport":"horse-racing","kind":"session","sessionTime":"Afternoon","date":"2026-02-14"}
]}`

func writeFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(feed), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEvaluateCommand(t *testing.T) {
	path := writeFeed(t)

	convey.Convey("Given the evaluate command over a feed file", t, func() {
		root := newRootCmd()
		var out, errOut bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&errOut)

		convey.Convey("When it runs for a date with an anchor", func() {
			root.SetArgs([]string{"evaluate", "--events", path, "--date", "2026-02-14",
				"--now", "2026-02-14T12:00:00Z", "--lat", "51.5549", "--lng", "-0.1084"})
			err := root.ExecuteContext(context.Background())
			convey.So(err, convey.ShouldBeNil)

			var report service.Report
			convey.So(json.Unmarshal(out.Bytes(), &report), convey.ShouldBeNil)

			convey.Convey("Then every engine section is reported", func() {
				convey.So(report.Date, convey.ShouldEqual, "2026-02-14")
				convey.So(report.States, convey.ShouldHaveLength, 3)
				convey.So(report.Congestion.Total, convey.ShouldEqual, 3)
				convey.So(report.Mobility.Events, convey.ShouldEqual, 3)
				convey.So(report.Risk.Considered, convey.ShouldEqual, 3)
				convey.So(report.Risk.FinalScore, convey.ShouldEqual, 84)
			})
		})

		convey.Convey("When it runs without an anchor", func() {
			root.SetArgs([]string{"evaluate", "--events", path, "--date", "2026-02-14", "--now", "2026-02-14T12:00:00Z"})
			convey.So(root.ExecuteContext(context.Background()), convey.ShouldBeNil)

			var report service.Report
			convey.So(json.Unmarshal(out.Bytes(), &report), convey.ShouldBeNil)
			convey.So(report.Risk.Result.IsZero(), convey.ShouldBeTrue)
		})

		convey.Convey("When the events flag is missing", func() {
			root.SetArgs([]string{"evaluate", "--date", "2026-02-14"})
			convey.So(root.ExecuteContext(context.Background()), convey.ShouldNotBeNil)
		})

		convey.Convey("When now is malformed", func() {
			root.SetArgs([]string{"evaluate", "--events", path, "--now", "noon"})
			err := root.ExecuteContext(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "--now")
		})

		convey.Convey("When the feed file does not exist", func() {
			root.SetArgs([]string{"evaluate", "--events", filepath.Join(t.TempDir(), "missing.json")})
			convey.So(root.ExecuteContext(context.Background()), convey.ShouldNotBeNil)
		})
	})
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then it carries serve and evaluate", func() {
			names := map[string]bool{}
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			convey.So(names["serve"], convey.ShouldBeTrue)
			convey.So(names["evaluate"], convey.ShouldBeTrue)
		})
	})
}

func TestBuilders(t *testing.T) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		t.Fatal(err)
	}

	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()

		convey.Convey("When the evaluator is built", func() {
			eval, err := buildEvaluator(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(eval.Location("").String(), convey.ShouldEqual, "Europe/London")
			convey.So(eval.Location("Ireland").String(), convey.ShouldEqual, "Europe/Dublin")
			convey.So(eval.Window(), convey.ShouldResemble, cfg.BucketWindow())
		})

		convey.Convey("When no feeds are configured", func() {
			sources, err := buildSources(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(sources, convey.ShouldBeEmpty)
		})

		convey.Convey("When a feed file is configured", func() {
			cfg.EventsFile = writeFeed(t)
			sources, err := buildSources(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(sources, convey.ShouldHaveLength, 1)
			convey.So(sources[0].Name(), convey.ShouldEqual, "file")
		})
	})

	convey.Convey("Given a started service", t, func() {
		svc, err := service.New()
		convey.So(err, convey.ShouldBeNil)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		convey.Convey("Then the metrics updater runs until its context ends", func() {
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Reset(func() {
			_ = svc.Stop(context.Background())
		})
	})
}
