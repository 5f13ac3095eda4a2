package sframe

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestContextEndToEndRoundTrip(t *testing.T) {
	Convey("Given two contexts sharing a raw key, one as sender and one as receiver", t, func() {
		rawKey := make([]byte, 32)
		for i := range rawKey {
			rawKey[i] = 0xAB
		}

		sendCtx := NewContext()
		recvCtx := NewContext()

		So(sendCtx.SetSenderEncryptionKey(42, rawKey, DefaultCipherSuiteVariant), ShouldBeNil)
		So(recvCtx.SetReceiverEncryptionKey(42, rawKey, DefaultCipherSuiteVariant), ShouldBeNil)

		So(sendCtx.CanEncrypt(), ShouldBeTrue)
		So(recvCtx.CanDecrypt(42), ShouldBeTrue)

		Convey("A frame encrypted by the sender decrypts correctly on the receiver", func() {
			frame, err := sendCtx.EncryptFrame([]byte("hello world"), 0)
			So(err, ShouldBeNil)

			keyID, err := recvCtx.ReadKeyID(frame, 0)
			So(err, ShouldBeNil)
			So(keyID, ShouldEqual, uint64(42))

			plaintext, err := recvCtx.DecryptFrame(frame, 0)
			So(err, ShouldBeNil)
			So(string(plaintext), ShouldEqual, "hello world")
		})
	})
}

func TestContextHeaderLengthSkipsOpaquePrefix(t *testing.T) {
	Convey("Given a context encrypting a frame with a non-zero headerLength prefix", t, func() {
		rawKey := make([]byte, 32)
		for i := range rawKey {
			rawKey[i] = 0xEF
		}
		sendCtx := NewContext()
		recvCtx := NewContext()
		So(sendCtx.SetSenderEncryptionKey(5, rawKey, DefaultCipherSuiteVariant), ShouldBeNil)
		So(recvCtx.SetReceiverEncryptionKey(5, rawKey, DefaultCipherSuiteVariant), ShouldBeNil)

		plaintext := append([]byte{0xAA, 0xBB, 0xCC}, []byte("payload")...)
		frame, err := sendCtx.EncryptFrame(plaintext, 3)
		So(err, ShouldBeNil)

		Convey("ReadKeyID parses the header after the prefix, not the prefix itself", func() {
			keyID, err := recvCtx.ReadKeyID(frame, 3)
			So(err, ShouldBeNil)
			So(keyID, ShouldEqual, uint64(5))
		})

		Convey("DecryptFrame parses the header after the prefix and restores it in clear", func() {
			out, err := recvCtx.DecryptFrame(frame, 3)
			So(err, ShouldBeNil)
			So(out, ShouldResemble, plaintext)
		})
	})
}

func TestContextDeleteReceiverRejectsSubsequentFrames(t *testing.T) {
	Convey("Given a context with a receiver key installed", t, func() {
		rawKey := make([]byte, 32)
		for i := range rawKey {
			rawKey[i] = 0xCD
		}
		sendCtx := NewContext()
		recvCtx := NewContext()
		So(sendCtx.SetSenderEncryptionKey(1, rawKey, DefaultCipherSuiteVariant), ShouldBeNil)
		So(recvCtx.SetReceiverEncryptionKey(1, rawKey, DefaultCipherSuiteVariant), ShouldBeNil)

		frame, err := sendCtx.EncryptFrame([]byte("payload"), 0)
		So(err, ShouldBeNil)

		Convey("After DeleteReceiver, decrypting a new frame for that key id fails", func() {
			recvCtx.DeleteReceiver(1)
			_, err := recvCtx.DecryptFrame(frame, 0)
			So(err, ShouldNotBeNil)
			So(recvCtx.CanDecrypt(1), ShouldBeFalse)
		})
	})
}

func TestContextKeyRotationAcrossFacade(t *testing.T) {
	Convey("Given a receiver context with a short key timeout", t, func() {
		rawA := make([]byte, 32)
		rawB := make([]byte, 32)
		for i := range rawA {
			rawA[i] = 0x01
			rawB[i] = 0x02
		}

		sendCtxA := NewContext()
		sendCtxB := NewContext()
		recvCtx := NewContext(WithKeyTimeout(50 * time.Millisecond))

		So(sendCtxA.SetSenderEncryptionKey(7, rawA, DefaultCipherSuiteVariant), ShouldBeNil)
		So(sendCtxB.SetSenderEncryptionKey(7, rawB, DefaultCipherSuiteVariant), ShouldBeNil)
		So(recvCtx.SetReceiverEncryptionKey(7, rawA, DefaultCipherSuiteVariant), ShouldBeNil)

		frameA, err := sendCtxA.EncryptFrame([]byte("old-key-frame"), 0)
		So(err, ShouldBeNil)

		So(recvCtx.SetReceiverEncryptionKey(7, rawB, DefaultCipherSuiteVariant), ShouldBeNil)
		frameB, err := sendCtxB.EncryptFrame([]byte("new-key-frame"), 0)
		So(err, ShouldBeNil)

		Convey("Both keys work immediately after rotation", func() {
			_, err := recvCtx.DecryptFrame(frameA, 0)
			So(err, ShouldBeNil)
			_, err = recvCtx.DecryptFrame(frameB, 0)
			So(err, ShouldBeNil)
		})

		Convey("After the key timeout elapses, the old key is retired", func() {
			time.Sleep(150 * time.Millisecond)
			_, err := recvCtx.DecryptFrame(frameA, 0)
			So(err, ShouldNotBeNil)
			_, err = recvCtx.DecryptFrame(frameB, 0)
			So(err, ShouldBeNil)
		})
	})
}
