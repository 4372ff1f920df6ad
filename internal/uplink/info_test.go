package uplink

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/brocaar/lorawan"
	"github.com/brocaar/lorawan/backend"

	"github.com/brocaar/chirpstack-uplink-decoder/internal/frame"
)

func TestNewFrameInfo(t *testing.T) {
	Convey("Given a frame with FCtrl bit 4 set", t, func() {
		raw := []byte{0x40, 0x04, 0x03, 0x02, 0x01, 0x92, 0x05, 0x00, 0x03, 0x04, 0x01, 0xaa, 0x01, 0x02, 0x03, 0x04}

		Convey("When it is an uplink", func() {
			f, err := frame.Parse(raw)
			So(err, ShouldBeNil)
			info := NewFrameInfo(f, raw)

			Convey("Then ClassB is set and FPending is not", func() {
				So(info.Direction, ShouldEqual, "uplink")
				So(info.ClassB, ShouldBeTrue)
				So(info.FPending, ShouldBeFalse)
				So(info.ADR, ShouldBeTrue)
				So(info.FOptsLen, ShouldEqual, 2)
				So(info.FOpts, ShouldResemble, backend.HEXBytes{0x03, 0x04})
				So(*info.FPort, ShouldEqual, uint8(1))
				So(info.DevAddr, ShouldEqual, lorawan.DevAddr{1, 2, 3, 4})
			})
		})

		Convey("When it is a downlink", func() {
			down := append([]byte{0x60}, raw[1:]...)
			f, err := frame.Parse(down)
			So(err, ShouldBeNil)
			info := NewFrameInfo(f, down)

			Convey("Then FPending is set and ClassB is not", func() {
				So(info.Direction, ShouldEqual, "downlink")
				So(info.FPending, ShouldBeTrue)
				So(info.ClassB, ShouldBeFalse)
			})
		})

		Convey("When marshaling to JSON", func() {
			f, err := frame.Parse(raw)
			So(err, ShouldBeNil)
			b, err := json.Marshal(NewFrameInfo(f, raw))
			So(err, ShouldBeNil)

			var out map[string]interface{}
			So(json.Unmarshal(b, &out), ShouldBeNil)

			Convey("Then byte fields are hex encoded", func() {
				So(out["mhdr"], ShouldEqual, "40")
				So(out["devAddr"], ShouldEqual, "01020304")
				So(out["fCntHex"], ShouldEqual, "0005")
				So(out["frmPayload"], ShouldEqual, "aa")
				So(out["mic"], ShouldEqual, "01020304")
			})
		})
	})

	Convey("Given a frame without FPort", t, func() {
		raw := []byte{0x40, 0x04, 0x03, 0x02, 0x01, 0x00, 0x01, 0x00, 0x01, 0x02, 0x03, 0x04}
		f, err := frame.Parse(raw)
		So(err, ShouldBeNil)

		Convey("Then FPort is nil and FRMPayload is empty", func() {
			info := NewFrameInfo(f, raw)
			So(info.FPort, ShouldBeNil)
			So(info.FRMPayload, ShouldHaveLength, 0)
			So(info.FCnt, ShouldEqual, uint16(1))
		})
	})
}
