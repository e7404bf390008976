package presenter

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"cputop/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProject(t *testing.T, s domain.Snapshot) View {
	t.Helper()

	v, err := Project(s)
	require.NoError(t, err)
	return v
}

func TestTextDisplayFrame(t *testing.T) {
	var buf bytes.Buffer
	d := NewTextDisplay(&buf, 10)

	require.NoError(t, d.Show(mustProject(t, domain.Snapshot{50, 100, 150, -10})))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "CPU 1: 50.00%  |█████     |", lines[0])
	assert.Equal(t, "CPU 2: 100.00% |██████████|", lines[1])
	assert.Equal(t, "CPU 3: 150.00% |███████████████|", lines[2])
	assert.Equal(t, "CPU 4: -10.00% |          |", lines[3])
	assert.NotContains(t, buf.String(), clearScreen)
}

func TestTextDisplayCapsOverflow(t *testing.T) {
	var buf bytes.Buffer
	d := NewTextDisplay(&buf, 4)

	require.NoError(t, d.Show(mustProject(t, domain.Snapshot{1e18, math.MaxFloat64})))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, maxOverflow*4, strings.Count(line, "█"), line)
	}
}

func TestTextDisplayEmptyView(t *testing.T) {
	var buf bytes.Buffer
	d := NewTextDisplay(&buf, 10)

	require.NoError(t, d.Show(View{}))
	assert.Equal(t, "\n", buf.String())
}

func TestTextDisplayWritesWholeFrames(t *testing.T) {
	var buf bytes.Buffer
	d := NewTextDisplay(&buf, 4)

	require.NoError(t, d.Show(mustProject(t, domain.Snapshot{25})))
	require.NoError(t, d.Show(mustProject(t, domain.Snapshot{75})))

	frames := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n\n")
	require.Len(t, frames, 2)
	assert.Equal(t, "CPU 1: 25.00% |█   |", frames[0])
	assert.Equal(t, "CPU 1: 75.00% |███ |", frames[1])
}

func TestTUIDisplayShowBeforeRun(t *testing.T) {
	d := NewTUIDisplay("cputop", 10)

	require.NoError(t, d.Show(mustProject(t, domain.Snapshot{12.5, 87.333})))

	text := d.Text()
	assert.Contains(t, text, "CPU 1: 12.50%")
	assert.Contains(t, text, "CPU 2: 87.33%")
	assert.NotContains(t, text, "[green]")

	require.NoError(t, d.Show(View{}))
	assert.Empty(t, strings.TrimSpace(d.Text()))
}

func TestRecorderKeepsLastFrame(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.Show(mustProject(t, domain.Snapshot{1, 2})))
	require.NoError(t, r.Show(mustProject(t, domain.Snapshot{3})))

	assert.Equal(t, 2, r.Frames())
	assert.Len(t, r.Last().Bars, 1)
}
