package announce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuncAndRecorder(t *testing.T) {
	var got []string
	var a Announcer = Func(func(text string) { got = append(got, text) })
	a.Announce("Camera ready")
	assert.Equal(t, []string{"Camera ready"}, got)

	r := &Recorder{}
	r.Announce("one")
	r.Announce("two")
	msgs := r.Messages()
	assert.Equal(t, []string{"one", "two"}, msgs)

	msgs[0] = "changed"
	assert.Equal(t, "one", r.Messages()[0])

	Nop{}.Announce("ignored")
}

func TestArgsFor(t *testing.T) {
	assert.Equal(t, []string{"-r", "149", "hi"}, argsFor("say")("hi"))
	assert.Equal(t, []string{"-s", "149", "-p", "55", "-v", "en-us", "hi"}, argsFor("espeak")("hi"))
}

func TestNewSpeakerMissingCommand(t *testing.T) {
	_, ok := NewSpeaker("signiz-no-such-tts-binary", nil)
	assert.False(t, ok)
}
