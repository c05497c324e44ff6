package eventsource_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/fanpulse/internal/adapters/eventsource"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecode(t *testing.T) {
	Convey("Given feed documents", t, func() {
		Convey("When the document is an array", func() {
			events, err := eventsource.Decode(strings.NewReader(`[
				{"id":"m1","sport":"football","date":"2026-02-14T15:00:00","location":{"lat":51.55,"lng":-0.1}},
				{"id":"r1","sport":"horse-racing","startDate":"2026-02-14","sessionTime":"Floodlit"}
			]`))

			Convey("Then every record is returned", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
				So(events[0].Location, ShouldNotBeNil)
				So(events[0].Location.Lat, ShouldEqual, 51.55)
				So(events[1].SessionTime, ShouldEqual, "Floodlit")
			})
		})

		Convey("When the document wraps records in an envelope", func() {
			events, err := eventsource.Decode(strings.NewReader(`{"events":[{"id":"a","sport":"darts"}]}`))

			Convey("Then the wrapped records are returned", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].Sport, ShouldEqual, "darts")
			})
		})

		Convey("When the document is one record", func() {
			events, err := eventsource.Decode(strings.NewReader(`{"id":"a","sport":"tennis"}`))
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 1)
		})

		Convey("When a single record mentions events in its text", func() {
			doc, err := eventsource.DecodeDocument(strings.NewReader(`{"id":"a","sport":"darts","title":"events"}`))

			Convey("Then it is still reported as a single record", func() {
				So(err, ShouldBeNil)
				So(doc.Single, ShouldBeTrue)
				So(doc.Events, ShouldHaveLength, 1)
			})
		})

		Convey("When the document is an envelope or an array", func() {
			env, err := eventsource.DecodeDocument(strings.NewReader(`{"events":[{"id":"a","sport":"darts"}]}`))
			So(err, ShouldBeNil)
			So(env.Single, ShouldBeFalse)

			arr, err := eventsource.DecodeDocument(strings.NewReader(`[{"id":"a","sport":"darts"}]`))
			So(err, ShouldBeNil)
			So(arr.Single, ShouldBeFalse)
		})

		Convey("When the document is not a feed", func() {
			for _, body := range []string{"", "42", "[1,2", `{"events":"nope"}`} {
				_, err := eventsource.Decode(strings.NewReader(body))
				So(errors.Is(err, eventsource.ErrFormat), ShouldBeTrue)
			}
		})
	})
}

func TestDecodePayloads(t *testing.T) {
	Convey("Given stored payloads with one corrupt row", t, func() {
		events, skipped := eventsource.DecodePayloads([][]byte{
			[]byte(`{"id":"a","sport":"rugby"}`),
			[]byte(`not json`),
			[]byte(`{"id":"b","sport":"cricket","kind":"first_class","date":"2026-06-01"}`),
		})

		Convey("Then the corrupt row is skipped", func() {
			So(skipped, ShouldEqual, 1)
			So(events, ShouldHaveLength, 2)
			So(events[1].Kind, ShouldEqual, "first_class")
		})
	})
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a feed file", t, func() {
		src := eventsource.NewFileSource(writeFeed(t, `[{"id":"m1","sport":"football"}]`))
		So(src.Name(), ShouldEqual, "file")

		events, err := src.Load(ctx)
		So(err, ShouldBeNil)
		So(events, ShouldHaveLength, 1)
	})

	Convey("Given a missing file", t, func() {
		_, err := eventsource.NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Load(ctx)
		So(errors.Is(err, eventsource.ErrSourceLoad), ShouldBeTrue)
	})

	Convey("Given a malformed file", t, func() {
		_, err := eventsource.NewFileSource(writeFeed(t, `{{`)).Load(ctx)
		So(errors.Is(err, eventsource.ErrSourceLoad), ShouldBeTrue)
		So(errors.Is(err, eventsource.ErrFormat), ShouldBeTrue)
	})
}
