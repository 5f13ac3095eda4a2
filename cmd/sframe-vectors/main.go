/*
sframe-vectors runs a fixed set of scripted Context scenarios (basic round
trip, replay window enforcement, duplicate decrypt, key rotation, and
cross-sender isolation) and reports pass/fail for each, to give a quick
command-line signal on a build without pulling in a test harness.
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sframe-go/sframe"
	"github.com/sframe-go/sframe/internal/metrics"
)

// version is this binary's release version. Kept as a plain constant
// rather than a VCS-revision-sniffing package: this module has no release
// process that would give a build-info revision stamp any more meaning
// than the literal string.
const version = "0.1.0"

type vector struct {
	name string
	run  func(opts ...sframe.ContextOption) error
}

func main() {
	var verbose bool
	var only string
	var showVersion bool
	var showMetrics bool

	flag.BoolVar(&verbose, "verbose", false, "print each scenario's outcome as it runs")
	flag.StringVar(&only, "only", "", "run only the scenario with this name")
	flag.BoolVar(&showVersion, "version", false, "print the version and exit")
	flag.BoolVar(&showMetrics, "metrics", false, "print accumulated Prometheus counters after running")
	flag.Parse()

	log.SetFlags(log.LstdFlags)

	if showVersion {
		fmt.Println(version)
		return
	}

	vectors := []vector{
		{"basic-round-trip", scenarioBasicRoundTrip},
		{"replay-window", scenarioReplayWindow},
		{"duplicate-decrypt", scenarioDuplicateDecrypt},
		{"key-rotation", scenarioKeyRotation},
		{"cross-sender-isolation", scenarioCrossSenderIsolation},
	}

	m := metrics.New()
	opts := []sframe.ContextOption{sframe.WithMetrics(m)}

	failures := 0
	for _, v := range vectors {
		if only != "" && v.name != only {
			continue
		}
		err := v.run(opts...)
		status := "PASS"
		if err != nil {
			status = "FAIL"
			failures++
		}
		if verbose || err != nil {
			fmt.Printf("%-24s %s\n", v.name, status)
			if err != nil {
				fmt.Printf("  %v\n", err)
			}
		}
	}

	if showMetrics {
		printMetrics(m)
	}

	if failures > 0 {
		log.Printf("%d scenario(s) failed", failures)
		os.Exit(1)
	}
	log.Printf("all scenarios passed")
}

// printMetrics dumps every registered counter's current value, one line per
// label combination, without pulling in a full exposition-format encoder.
func printMetrics(m *metrics.PromMetrics) {
	families, err := m.Registry().Gather()
	if err != nil {
		log.Printf("failed to gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := ""
			for _, lp := range metric.GetLabel() {
				labels += fmt.Sprintf("%s=%s ", lp.GetName(), lp.GetValue())
			}
			fmt.Printf("%s{%s} %v\n", mf.GetName(), labels, metric.GetCounter().GetValue())
		}
	}
}

func rawKey(seed byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = seed
	}
	return k
}

func scenarioBasicRoundTrip(opts ...sframe.ContextOption) error {
	sendCtx := sframe.NewContext(opts...)
	recvCtx := sframe.NewContext(opts...)

	if err := sendCtx.SetSenderEncryptionKey(1, rawKey(0x10), sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := recvCtx.SetReceiverEncryptionKey(1, rawKey(0x10), sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}

	frame, err := sendCtx.EncryptFrame([]byte("vector payload"), 0)
	if err != nil {
		return err
	}
	plaintext, err := recvCtx.DecryptFrame(frame, 0)
	if err != nil {
		return err
	}
	if string(plaintext) != "vector payload" {
		return fmt.Errorf("round trip mismatch: got %q", plaintext)
	}
	return nil
}

func scenarioReplayWindow(opts ...sframe.ContextOption) error {
	sendCtx := sframe.NewContext(opts...)
	recvCtx := sframe.NewContext(opts...)

	key := rawKey(0x20)
	if err := sendCtx.SetSenderEncryptionKey(2, key, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := recvCtx.SetReceiverEncryptionKey(2, key, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}

	frames := make([][]byte, 200)
	for i := range frames {
		f, err := sendCtx.EncryptFrame([]byte("frame"), 0)
		if err != nil {
			return err
		}
		frames[i] = f
	}

	successes := 0
	for i := len(frames) - 1; i >= 0; i-- {
		if _, err := recvCtx.DecryptFrame(frames[i], 0); err == nil {
			successes++
		}
	}
	if successes != 129 {
		return fmt.Errorf("expected 129 successful decrypts within the replay window, got %d", successes)
	}
	return nil
}

func scenarioDuplicateDecrypt(opts ...sframe.ContextOption) error {
	sendCtx := sframe.NewContext(opts...)
	recvCtx := sframe.NewContext(opts...)

	key := rawKey(0x30)
	if err := sendCtx.SetSenderEncryptionKey(3, key, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := recvCtx.SetReceiverEncryptionKey(3, key, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}

	frame, err := sendCtx.EncryptFrame([]byte("repeat"), 0)
	if err != nil {
		return err
	}
	if _, err := recvCtx.DecryptFrame(frame, 0); err != nil {
		return err
	}
	if _, err := recvCtx.DecryptFrame(frame, 0); err != nil {
		return fmt.Errorf("duplicate decrypt of an already-seen frame should succeed: %w", err)
	}
	return nil
}

func scenarioKeyRotation(opts ...sframe.ContextOption) error {
	sendCtxA := sframe.NewContext(opts...)
	sendCtxB := sframe.NewContext(opts...)
	recvCtx := sframe.NewContext(opts...)

	keyA := rawKey(0x40)
	keyB := rawKey(0x41)

	if err := sendCtxA.SetSenderEncryptionKey(4, keyA, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := sendCtxB.SetSenderEncryptionKey(4, keyB, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := recvCtx.SetReceiverEncryptionKey(4, keyA, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}

	frameA, err := sendCtxA.EncryptFrame([]byte("pre-rotation"), 0)
	if err != nil {
		return err
	}

	if err := recvCtx.SetReceiverEncryptionKey(4, keyB, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	frameB, err := sendCtxB.EncryptFrame([]byte("post-rotation"), 0)
	if err != nil {
		return err
	}

	if _, err := recvCtx.DecryptFrame(frameA, 0); err != nil {
		return fmt.Errorf("pre-rotation frame should still decrypt immediately after rotation: %w", err)
	}
	if _, err := recvCtx.DecryptFrame(frameB, 0); err != nil {
		return fmt.Errorf("post-rotation frame should decrypt: %w", err)
	}

	time.Sleep(sframe.KeyTimeout + 200*time.Millisecond)

	if _, err := recvCtx.DecryptFrame(frameA, 0); err == nil {
		return fmt.Errorf("pre-rotation key should be retired after KeyTimeout")
	}
	if _, err := recvCtx.DecryptFrame(frameB, 0); err != nil {
		return fmt.Errorf("post-rotation key should still decrypt after KeyTimeout: %w", err)
	}
	return nil
}

func scenarioCrossSenderIsolation(opts ...sframe.ContextOption) error {
	sendCtxA := sframe.NewContext(opts...)
	sendCtxB := sframe.NewContext(opts...)
	recvCtx := sframe.NewContext(opts...)

	keyA := rawKey(0x50)
	keyB := rawKey(0x51)

	if err := sendCtxA.SetSenderEncryptionKey(11, keyA, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := sendCtxB.SetSenderEncryptionKey(12, keyB, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := recvCtx.SetReceiverEncryptionKey(11, keyA, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}
	if err := recvCtx.SetReceiverEncryptionKey(12, keyB, sframe.DefaultCipherSuiteVariant); err != nil {
		return err
	}

	frameA, err := sendCtxA.EncryptFrame([]byte("from sender a"), 0)
	if err != nil {
		return err
	}
	frameB, err := sendCtxB.EncryptFrame([]byte("from sender b"), 0)
	if err != nil {
		return err
	}

	ptA, err := recvCtx.DecryptFrame(frameA, 0)
	if err != nil {
		return err
	}
	ptB, err := recvCtx.DecryptFrame(frameB, 0)
	if err != nil {
		return err
	}
	if string(ptA) != "from sender a" || string(ptB) != "from sender b" {
		return fmt.Errorf("cross-sender isolation mismatch: %q / %q", ptA, ptB)
	}
	return nil
}
