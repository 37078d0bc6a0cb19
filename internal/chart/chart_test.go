package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/movieboard/internal/model"
)

func TestRenderScoresPNG(t *testing.T) {
	series := model.NewAggregateSeries(map[string]float64{"Action": 6.25, "Comedy": 5.9, "Drama": 7.1})
	var buf bytes.Buffer
	require.NoError(t, RenderScoresSize(&buf, series, Size{Width: 640, Height: 320}))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 320, cfg.Height)
}

func TestRenderScoresSingleGenre(t *testing.T) {
	series := model.NewAggregateSeries(map[string]float64{"Action": 4})
	var buf bytes.Buffer
	require.NoError(t, RenderScores(&buf, series))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, cfg.Width)
}

func TestRenderBudgetsPNG(t *testing.T) {
	series := model.NewAggregateSeries(map[string]float64{"Action": 150, "Comedy": 50})
	var buf bytes.Buffer
	require.NoError(t, RenderBudgets(&buf, series))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
}

func TestRenderEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderScores(&buf, model.AggregateSeries{}), ErrEmptySeries)
	assert.ErrorIs(t, RenderBudgets(&buf, model.AggregateSeries{}), ErrEmptySeries)
	assert.Zero(t, buf.Len())
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 80, barWidth(1024, 2))
	assert.Equal(t, 8, barWidth(200, 40))
	assert.Equal(t, 0, barWidth(1024, 0))
}
