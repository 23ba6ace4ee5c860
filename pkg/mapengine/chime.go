package mapengine

import (
	"encoding/binary"
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const chimeSampleRate = 44100

// Chime is the audible ping for critical events. The tone is synthesized
// once at construction: a short decaying sine so back-to-back alerts do
// not pile up into noise.
type Chime struct {
	ctx *audio.Context
	pcm []byte
}

func NewChime() *Chime {
	return &Chime{
		ctx: audio.NewContext(chimeSampleRate),
		pcm: synthChime(880, 300*chimeSampleRate/1000),
	}
}

// Play fires the tone. Each call gets its own player; the tone is short
// enough that overlap from rapid criticals is acceptable.
func (c *Chime) Play() {
	p := c.ctx.NewPlayerFromBytes(c.pcm)
	p.Play()
}

// synthChime renders a sine at freq Hz for the given sample count with an
// exponential decay envelope, as 16-bit little endian stereo.
func synthChime(freq float64, samples int) []byte {
	buf := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		t := float64(i) / chimeSampleRate
		env := math.Exp(-6 * t)
		v := int16(math.Sin(2*math.Pi*freq*t) * env * 0.3 * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(v))
	}
	return buf
}
