package dialogue

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"healthbot/internal/model"
	"healthbot/internal/pkg/cache"
	"healthbot/internal/repository/memstore"
)

type failingDimRepo struct{}

func (failingDimRepo) List(context.Context) ([]model.MoodDimension, error) {
	return nil, errors.New("connection refused")
}

func (failingDimRepo) Upsert(context.Context, model.MoodDimension) error {
	return errors.New("connection refused")
}

func TestMoodCatalog(t *testing.T) {
	Convey("MoodCatalog", t, func() {
		ctx := context.Background()
		repos := memstore.New().Repositories()

		Convey("目录为空时使用默认八维", func() {
			c := NewMoodCatalog(repos.MoodDims, nil, 0)
			So(c.Dimensions(ctx), ShouldResemble, model.DefaultMoodDimensions())
		})

		Convey("存储失败时使用默认八维", func() {
			c := NewMoodCatalog(failingDimRepo{}, newMemCache(), 0)
			So(c.Dimensions(ctx), ShouldResemble, model.DefaultMoodDimensions())
		})

		Convey("读取目录并写入缓存", func() {
			mc := newMemCache()
			So(repos.MoodDims.Upsert(ctx, model.MoodDimension{Name: "focus", Min: 0, Max: 10, Order: 1}), ShouldBeNil)
			c := NewMoodCatalog(repos.MoodDims, mc, 0)

			dims := c.Dimensions(ctx)
			So(len(dims), ShouldEqual, 1)
			So(dims[0].Name, ShouldEqual, "focus")
			So(mc.sets, ShouldEqual, 1)

			Convey("缓存命中时不回源", func() {
				So(repos.MoodDims.Upsert(ctx, model.MoodDimension{Name: "calm", Min: 0, Max: 10, Order: 2}), ShouldBeNil)
				So(len(c.Dimensions(ctx)), ShouldEqual, 1)
				So(mc.sets, ShouldEqual, 1)

				Convey("Invalidate 之后读取到新目录", func() {
					So(c.Invalidate(ctx), ShouldBeNil)
					var cached []model.MoodDimension
					So(mc.Get(ctx, cache.MoodCatalogKey, &cached), ShouldEqual, cache.ErrMiss)

					dims := c.Dimensions(ctx)
					So(len(dims), ShouldEqual, 2)
					So(dims[1].Name, ShouldEqual, "calm")
				})
			})
		})

		Convey("没有缓存时 Invalidate 为空操作", func() {
			c := NewMoodCatalog(repos.MoodDims, nil, 0)
			So(c.Invalidate(ctx), ShouldBeNil)
		})
	})
}
