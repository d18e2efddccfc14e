package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reel-cli/reel/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		So(must(Compare("1.2.3", "1.2.3")), ShouldEqual, 0)
		So(must(Compare("v1.3.0", "1.2.9")), ShouldEqual, 1)
		So(must(Compare("0.3.1", "1.0.0")), ShouldEqual, -1)

		_, err := Compare("latest", "1.0.0")
		So(err, ShouldNotBeNil)
	})
}

func TestLatest(t *testing.T) {
	Convey("Given a releases endpoint", t, func() {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			_, _ = w.Write([]byte(`{"tag_name": "v0.4.0"}`))
		}))
		defer srv.Close()

		saved := ReleasesURL
		ReleasesURL = srv.URL
		defer func() { ReleasesURL = saved }()

		Convey("Latest strips the tag prefix and caches the answer", func() {
			v, err := Latest(context.Background())
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "0.4.0")

			v, err = Latest(context.Background())
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "0.4.0")
			So(hits, ShouldEqual, 1)
		})
	})
}

func must(n int, err error) int {
	So(err, ShouldBeNil)
	return n
}
