package effectchain

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/wavfx/effects"
)

func sine(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.8 * math.Sin(2*math.Pi*float64(i)/29)
	}

	return out
}

func fullChain(t *testing.T) Chain {
	t.Helper()

	c := Default()
	for _, k := range effects.Kinds() {
		require.NoError(t, c.SetParam(k, 40+int(k)*10))
		require.NoError(t, c.SetMix(k, 60))
	}

	return c
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "0-1-2-3-4-5", c.String())

	order, params, mixes := c.Preset()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, params)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, mixes)
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     string
	}{
		{"forward", 0, 3, "1-2-3-0-4-5"},
		{"backward", 4, 1, "0-4-1-2-3-5"},
		{"to end", 0, 5, "1-2-3-4-5-0"},
		{"to front", 5, 0, "5-0-1-2-3-4"},
		{"adjacent", 2, 3, "0-1-3-2-4-5"},
		{"same position", 2, 2, "0-1-2-3-4-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			require.NoError(t, c.Move(tt.from, tt.to))
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestMoveOutOfRange(t *testing.T) {
	for _, idx := range [][2]int{{-1, 0}, {0, 6}, {6, 0}, {0, -1}} {
		c := Default()
		err := c.Move(idx[0], idx[1])
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.Equal(t, "0-1-2-3-4-5", c.String())
	}
}

func TestMoveKeepsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	c := fullChain(t)

	for range 1000 {
		require.NoError(t, c.Move(rng.IntN(effects.NumKinds), rng.IntN(effects.NumKinds)))

		seen := map[effects.Kind]bool{}
		for _, k := range c.Order() {
			assert.True(t, k.Valid())
			assert.False(t, seen[k], "duplicate %s in %s", k, c)
			seen[k] = true
		}

		require.Len(t, seen, effects.NumKinds)
	}
}

func TestLevelsFollowKind(t *testing.T) {
	c := Default()
	require.NoError(t, c.SetParam(effects.Drive, 50))
	require.NoError(t, c.SetMix(effects.Drive, 100))

	require.NoError(t, c.Move(4, 0))

	steps := c.Steps()
	assert.Equal(t, Step{Kind: effects.Drive, Param: 50, Mix: 100}, steps[0])
	assert.Equal(t, 50, c.Param(effects.Drive))
	assert.Equal(t, 100, c.Mix(effects.Drive))
}

func TestSetLevelValidation(t *testing.T) {
	c := Default()

	require.ErrorIs(t, c.SetParam(effects.BitCrush, 101), ErrInvalidLevel)
	require.ErrorIs(t, c.SetMix(effects.BitCrush, -1), ErrInvalidLevel)
	require.ErrorIs(t, c.SetParam(effects.Kind(6), 10), effects.ErrUnknownKind)
	assert.Equal(t, Default(), c)
}

func TestLoadPreset(t *testing.T) {
	c := Default()
	require.NoError(t, c.LoadPreset(
		[]int{4, 5, 0, 1, 2, 3},
		[]int{1, 2, 3, 4, 50, 0},
		[]int{0, 0, 0, 0, 100, 100},
	))

	assert.Equal(t, "4-5-0-1-2-3", c.String())

	order, params, mixes := c.Preset()
	assert.Equal(t, []int{4, 5, 0, 1, 2, 3}, order)
	assert.Equal(t, []int{1, 2, 3, 4, 50, 0}, params)
	assert.Equal(t, []int{0, 0, 0, 0, 100, 100}, mixes)
}

func TestLoadPresetRejectsMalformedTables(t *testing.T) {
	ok := []int{0, 0, 0, 0, 0, 0}
	order := []int{0, 1, 2, 3, 4, 5}

	tests := []struct {
		name                 string
		order, params, mixes []int
	}{
		{"short order", []int{0, 1, 2}, ok, ok},
		{"long order", []int{0, 1, 2, 3, 4, 5, 0}, ok, ok},
		{"unknown identifier", []int{0, 1, 2, 3, 4, 6}, ok, ok},
		{"negative identifier", []int{-1, 1, 2, 3, 4, 5}, ok, ok},
		{"duplicate identifier", []int{0, 1, 2, 3, 4, 4}, ok, ok},
		{"short params", order, []int{0}, ok},
		{"param too high", order, []int{0, 0, 101, 0, 0, 0}, ok},
		{"mix negative", order, ok, []int{0, 0, 0, 0, 0, -5}},
		{"nil mixes", order, ok, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fullChain(t)
			before := c

			err := c.LoadPreset(tt.order, tt.params, tt.mixes)
			require.ErrorIs(t, err, ErrInvalidPreset)
			assert.Equal(t, before, c)
		})
	}
}

func TestParseOrder(t *testing.T) {
	order, err := ParseOrder("drive, saturation,0,1,clipdecay,3")
	require.NoError(t, err)
	assert.Equal(t, []effects.Kind{effects.Drive, effects.Saturation, effects.LowPassCutoff,
		effects.RingModulation, effects.ClipAndDecay, effects.BitCrush}, order)

	c := Default()
	require.NoError(t, c.SetOrder(order))
	assert.Equal(t, "4-5-0-1-2-3", c.String())

	_, err = ParseOrder("drive,saturation")
	require.ErrorIs(t, err, ErrInvalidPreset)

	_, err = ParseOrder("drive,drive,0,1,2,3")
	require.ErrorIs(t, err, ErrInvalidPreset)

	_, err = ParseOrder("drive,fuzz,0,1,2,3")
	require.ErrorIs(t, err, ErrInvalidPreset)
	require.ErrorIs(t, err, effects.ErrUnknownKind)
}

func TestApplyChainZeroMixIsIdentity(t *testing.T) {
	c := Default()
	for _, k := range effects.Kinds() {
		require.NoError(t, c.SetParam(k, 100))
	}

	in := sine(300)
	out := ApplyChain(in, c, 8000)

	assert.Equal(t, in, out)
	assert.NotSame(t, &in[0], &out[0])
}

func TestApplyChainDriveThenSaturation(t *testing.T) {
	c := Default()
	require.NoError(t, c.SetOrder([]effects.Kind{effects.Drive, effects.Saturation,
		effects.LowPassCutoff, effects.RingModulation, effects.ClipAndDecay, effects.BitCrush}))
	require.NoError(t, c.SetParam(effects.Drive, 50))
	require.NoError(t, c.SetMix(effects.Drive, 100))
	require.NoError(t, c.SetParam(effects.Saturation, 0))
	require.NoError(t, c.SetMix(effects.Saturation, 100))

	out := ApplyChain([]float64{0.3}, c, 8000)

	require.Len(t, out, 1)
	assert.InDelta(t, math.Tanh(0.6), out[0], 1e-12)
	assert.InDelta(t, 0.5370, out[0], 1e-4)
}

func TestApplyChainFullMixEqualsWetExactly(t *testing.T) {
	in := sine(256)

	for _, k := range effects.Kinds() {
		c := Default()
		require.NoError(t, c.SetParam(k, 70))
		require.NoError(t, c.SetMix(k, 100))

		wet := append([]float64(nil), in...)
		k.Process(wet, 70, 22050)

		assert.Equal(t, wet, ApplyChain(in, c, 22050), k.String())
	}
}

func TestApplyChainBlend(t *testing.T) {
	in := []float64{0.25, -0.5, 0.75}

	c := Default()
	require.NoError(t, c.SetParam(effects.Drive, 100))
	require.NoError(t, c.SetMix(effects.Drive, 25))

	out := ApplyChain(in, c, 8000)

	for i, x := range in {
		assert.InDelta(t, 3*x*0.25+x*0.75, out[i], 1e-12)
	}
}

func TestApplyChainDoesNotModifyInput(t *testing.T) {
	in := sine(128)
	orig := append([]float64(nil), in...)

	_ = ApplyChain(in, fullChain(t), 44100)

	assert.Equal(t, orig, in)
}

func TestApplyChainIsSerial(t *testing.T) {
	in := sine(200)
	c := fullChain(t)

	want := append([]float64(nil), in...)
	for _, s := range c.Steps() {
		dry := append([]float64(nil), want...)
		s.Kind.Process(want, s.Param, 16000)

		w := float64(s.Mix) / 100
		for i := range want {
			want[i] = want[i]*w + dry[i]*(1-w)
		}
	}

	got := ApplyChain(in, c, 16000)
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-12, "sample %d", i)
	}
}

func TestApplyChainEmpty(t *testing.T) {
	assert.Empty(t, ApplyChain(nil, fullChain(t), 8000))
}

func TestApplyBuffer(t *testing.T) {
	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:   []float64{0.3},
	}

	c := Default()
	require.NoError(t, c.SetParam(effects.Drive, 50))
	require.NoError(t, c.SetMix(effects.Drive, 100))

	out := ApplyBuffer(buf, c)

	require.NotNil(t, out)
	assert.InDelta(t, 0.6, out.Data[0], 1e-12)
	assert.Equal(t, 0.3, buf.Data[0])
	assert.Equal(t, *buf.Format, *out.Format)
	assert.NotSame(t, buf.Format, out.Format)
	assert.Nil(t, ApplyBuffer(nil, c))
}
