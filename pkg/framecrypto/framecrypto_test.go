package framecrypto

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sframe-go/sframe/internal/suite"
	"github.com/sframe-go/sframe/pkg/header"
)

func keyFor(v suite.Variant) []byte {
	cfg, _ := suite.ConfigFor(v)
	key := make([]byte, cfg.NK)
	for i := range key {
		key[i] = byte(i*7 + 1)
	}
	return key
}

func allVariants() []suite.Variant {
	return []suite.Variant{
		suite.AES_CM_128_HMAC_SHA256_4,
		suite.AES_CM_128_HMAC_SHA256_8,
		suite.AES_GCM_128_SHA256,
		suite.AES_GCM_256_SHA512,
	}
}

func TestRoundTripAllVariants(t *testing.T) {
	Convey("For every cipher suite, decrypt(encrypt(P)) == P", t, func() {
		for _, v := range allVariants() {
			inst, err := suite.DeriveInstance(v, keyFor(v))
			So(err, ShouldBeNil)

			hdr, err := header.Generate(5, 42)
			So(err, ShouldBeNil)

			plaintext := []byte("a real-time media payload, allegedly")
			ciphertext, err := Encrypt(inst, hdr, plaintext, 0)
			So(err, ShouldBeNil)

			parsedHdr, err := header.Parse(ciphertext)
			So(err, ShouldBeNil)
			So(parsedHdr.KeyID, ShouldEqual, uint64(5))
			So(parsedHdr.Counter, ShouldEqual, uint64(42))

			decrypted, err := Decrypt(inst, parsedHdr, ciphertext, 0)
			So(err, ShouldBeNil)
			So(bytes.Equal(decrypted, plaintext), ShouldBeTrue)
		}
	})
}

func TestSkipPrefixIsPreservedByLayoutNotByFrameCrypto(t *testing.T) {
	Convey("Given a skip region, Encrypt leaves it zeroed and sized correctly", t, func() {
		inst, err := suite.DeriveInstance(suite.AES_GCM_128_SHA256, keyFor(suite.AES_GCM_128_SHA256))
		So(err, ShouldBeNil)
		hdr, err := header.Generate(1, 1)
		So(err, ShouldBeNil)

		plaintext := []byte("payload-after-skip")
		skip := 3
		out, err := Encrypt(inst, hdr, plaintext, skip)
		So(err, ShouldBeNil)

		// AES-GCM keeps its native 16-byte tag inside the ciphertext core;
		// the truncated HMAC tag of NT bytes follows it.
		So(len(out), ShouldEqual, skip+len(hdr.Data)+len(plaintext)+16+inst.Config.NT)
		So(out[:skip], ShouldResemble, make([]byte, skip))

		copy(out[:skip], []byte{0xaa, 0xbb, 0xcc})
		parsedHdr, err := header.Parse(out[skip:])
		So(err, ShouldBeNil)
		decrypted, err := Decrypt(inst, parsedHdr, out, skip)
		So(err, ShouldBeNil)
		So(bytes.Equal(decrypted, plaintext), ShouldBeTrue)
	})
}

func TestTamperedCiphertextFailsAuthentication(t *testing.T) {
	Convey("Given a valid frame with one flipped ciphertext byte", t, func() {
		inst, err := suite.DeriveInstance(suite.AES_GCM_256_SHA512, keyFor(suite.AES_GCM_256_SHA512))
		So(err, ShouldBeNil)
		hdr, err := header.Generate(2, 7)
		So(err, ShouldBeNil)

		out, err := Encrypt(inst, hdr, []byte("tamper me"), 0)
		So(err, ShouldBeNil)

		out[len(out)-inst.Config.NT-1] ^= 0x01

		_, err = Decrypt(inst, hdr, out, 0)
		So(err, ShouldEqual, ErrAuthenticationFailed)
	})
}

func TestTamperedTagFailsAuthentication(t *testing.T) {
	Convey("Given a valid frame with one flipped tag byte", t, func() {
		inst, err := suite.DeriveInstance(suite.AES_CM_128_HMAC_SHA256_8, keyFor(suite.AES_CM_128_HMAC_SHA256_8))
		So(err, ShouldBeNil)
		hdr, err := header.Generate(2, 7)
		So(err, ShouldBeNil)

		out, err := Encrypt(inst, hdr, []byte("tamper the tag"), 0)
		So(err, ShouldBeNil)

		out[len(out)-1] ^= 0x01

		_, err = Decrypt(inst, hdr, out, 0)
		So(err, ShouldEqual, ErrAuthenticationFailed)
	})
}

func TestDistinctCountersYieldDistinctCiphertext(t *testing.T) {
	Convey("Given the same plaintext encrypted at two counters", t, func() {
		inst, err := suite.DeriveInstance(suite.AES_GCM_128_SHA256, keyFor(suite.AES_GCM_128_SHA256))
		So(err, ShouldBeNil)

		h0, _ := header.Generate(9, 0)
		h1, _ := header.Generate(9, 1)

		out0, err := Encrypt(inst, h0, []byte("same plaintext"), 0)
		So(err, ShouldBeNil)
		out1, err := Encrypt(inst, h1, []byte("same plaintext"), 0)
		So(err, ShouldBeNil)

		So(bytes.Equal(out0, out1), ShouldBeFalse)
	})
}
