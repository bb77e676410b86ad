package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/pkg/logger"
)

var _ = Describe("ParseLevel", func() {
	DescribeTable("levels",
		func(in string, want slog.Level) {
			Expect(logger.ParseLevel(in)).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("upper case", "ERROR", slog.LevelError),
		Entry("warning alias", "warning", slog.LevelWarn),
		Entry("offset", "INFO+2", slog.LevelInfo+2),
		Entry("unknown", "verbose", slog.LevelInfo),
		Entry("empty", "", slog.LevelInfo),
	)
})

var _ = Describe("FromContext", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		logger.InitWithWriter(buf, "debug", "json")
	})

	It("should attach session and job identifiers", func() {
		ctx := logger.WithContext(context.Background(), logger.SessionIDKey, "s-1")
		ctx = logger.WithContext(ctx, logger.JobIDKey, "j-1")

		logger.Info(ctx, "chapter finished", "chapter", 2)

		var rec map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &rec)).To(Succeed())
		Expect(rec["session_id"]).To(Equal("s-1"))
		Expect(rec["job_id"]).To(Equal("j-1"))
		Expect(rec["msg"]).To(Equal("chapter finished"))
		Expect(rec["chapter"]).To(BeNumerically("==", 2))
	})

	It("should append the error text", func() {
		logger.Error(context.Background(), "job failed", errors.New("boom"))

		var rec map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &rec)).To(Succeed())
		Expect(rec["level"]).To(Equal("ERROR"))
		Expect(rec["error"]).To(Equal("boom"))
	})
})

var _ = Describe("Init", func() {
	It("should write to a file output", func() {
		path := GinkgoT().TempDir() + "/app.log"
		Expect(logger.Init("info", "text", path)).To(Succeed())
		logger.Info(context.Background(), "hello")
		DeferCleanup(func() { logger.InitWithWriter(GinkgoWriter, "info", "text") })
	})

	It("should fall back to stdout for an unwritable path", func() {
		Expect(logger.Init("info", "text", "/nonexistent-dir/app.log")).NotTo(Succeed())
	})
})
