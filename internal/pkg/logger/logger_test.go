package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	. "github.com/smartystreets/goconvey/convey"
)

func TestComponent(t *testing.T) {
	Convey("Component 子 logger", t, func() {
		var buf bytes.Buffer
		saved := log.Logger
		log.Logger = zerolog.New(&buf)
		defer func() { log.Logger = saved }()

		Convey("直接链式调用并带上 component 字段", func() {
			Component("analysis_queue").Warn().Str("conversation_id", "c1").Msg("dropped")

			var entry map[string]any
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
			So(entry["component"], ShouldEqual, "analysis_queue")
			So(entry["conversation_id"], ShouldEqual, "c1")
			So(entry["level"], ShouldEqual, "warn")
			So(entry["message"], ShouldEqual, "dropped")
		})
	})
}
