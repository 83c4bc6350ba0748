package jwt

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestJWT(t *testing.T) {
	Convey("签发并校验 Token", t, func() {
		j := NewJWT("secret", time.Hour)

		token, err := j.GenerateToken("u1", true)
		So(err, ShouldBeNil)

		claims, err := j.ValidateToken(token)
		So(err, ShouldBeNil)
		So(claims.UserID, ShouldEqual, "u1")
		So(claims.Paid, ShouldBeTrue)

		Convey("密钥不一致", func() {
			_, err := NewJWT("other", time.Hour).ValidateToken(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("已过期", func() {
			old := &JWT{secret: []byte("secret"), expiration: -time.Minute}
			stale, err := old.GenerateToken("u1", false)
			So(err, ShouldBeNil)
			_, err = j.ValidateToken(stale)
			So(err, ShouldEqual, ErrExpiredToken)
		})

		Convey("缺少用户ID", func() {
			_, err := j.GenerateToken("", false)
			So(err, ShouldNotBeNil)
		})

		Convey("乱码", func() {
			_, err := j.ValidateToken("not-a-token")
			So(err, ShouldEqual, ErrInvalidToken)
		})
	})
}
