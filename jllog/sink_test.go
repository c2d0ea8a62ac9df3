package jllog

import (
	"testing"

	"go.viam.com/test"
)

func TestRecordingSink(t *testing.T) {
	sink := NewRecordingSink()
	Infof(sink, "limits for %s are %v", "shoulder_pan", 1.5)
	Errorf(sink, "declare failed")

	entries := sink.Entries()
	test.That(t, len(entries), test.ShouldEqual, 2)
	test.That(t, entries[0].Level, test.ShouldEqual, Info)
	test.That(t, entries[0].Message, test.ShouldEqual, "limits for shoulder_pan are 1.5")
	test.That(t, entries[1].Level, test.ShouldEqual, Error)
}

func TestZapSinkDoesNotPanic(t *testing.T) {
	sink := NewDefaultSink("test")
	sink.Log(Debug, "hello", "joint", "wrist")
}
