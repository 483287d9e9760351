package scoring

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"roleboard/feature/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoScript = `
function score(char)
  local total = 0
  for _, echo in ipairs(char.phantomData.equipPhantomList) do
    total = total + echo.cost
  end
  return total * 10.005, string.format("%d,%03d", char.level, 500)
end

function numeric(char)
  return 1.5, 2000
end

function broken(char)
  error("no weights for " .. char.role.roleName)
end

function nothing(char)
end
`

func geared() snapshot.Blob {
	return snapshot.Blob{
		"role":  map[string]any{"roleId": float64(1205), "roleName": "Changli"},
		"level": float64(90),
		"phantomData": map[string]any{
			"cost": float64(12),
			"equipPhantomList": []any{
				map[string]any{"cost": float64(4)},
				map[string]any{"cost": float64(3)},
				nil,
			},
		},
	}
}

func TestLuaScorer_Score(t *testing.T) {
	s, err := NewLuaScorer(echoScript, "score")
	require.NoError(t, err)

	score, damage, err := s.Score(context.Background(), geared())
	require.NoError(t, err)
	assert.InDelta(t, 70.035, score, 1e-9)
	assert.Equal(t, "90,500", damage)
}

func TestLuaScorer_NumericDamage(t *testing.T) {
	s, err := NewLuaScorer(echoScript, "numeric")
	require.NoError(t, err)

	score, damage, err := s.Score(context.Background(), geared())
	require.NoError(t, err)
	assert.Equal(t, 1.5, score)

	parsed, err := snapshot.ParseDamage(damage)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, parsed)
}

func TestLuaScorer_Errors(t *testing.T) {
	t.Run("Runtime Error", func(t *testing.T) {
		s, err := NewLuaScorer(echoScript, "broken")
		require.NoError(t, err)
		_, _, err = s.Score(context.Background(), geared())
		assert.ErrorContains(t, err, "no weights for Changli")

		// The state stays usable after a failed call.
		_, _, err = s.Score(context.Background(), geared())
		assert.Error(t, err)
	})

	t.Run("No Result", func(t *testing.T) {
		s, err := NewLuaScorer(echoScript, "nothing")
		require.NoError(t, err)
		_, _, err = s.Score(context.Background(), geared())
		assert.ErrorIs(t, err, ErrBadResult)
	})

	t.Run("Missing Function", func(t *testing.T) {
		_, err := NewLuaScorer(echoScript, "absent")
		assert.ErrorContains(t, err, `does not define function "absent"`)
	})

	t.Run("Syntax Error", func(t *testing.T) {
		_, err := NewLuaScorer("function score(", "score")
		assert.Error(t, err)
	})

	t.Run("Sandboxed", func(t *testing.T) {
		s, err := NewLuaScorer(`function score(c) return os.time(), "0" end`, "score")
		require.NoError(t, err)
		_, _, err = s.Score(context.Background(), geared())
		assert.Error(t, err)
	})

	t.Run("Cancelled", func(t *testing.T) {
		s, err := NewLuaScorer(echoScript, "score")
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err = s.Score(ctx, geared())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLuaScorer_Concurrent(t *testing.T) {
	s, err := NewLuaScorer(echoScript, "score")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			score, _, err := s.Score(context.Background(), geared())
			assert.NoError(t, err)
			assert.InDelta(t, 70.035, score, 1e-9)
		}()
	}
	wg.Wait()
}

func TestNew(t *testing.T) {
	fn, err := New(Config{})
	require.NoError(t, err)
	_, _, err = fn.Score(context.Background(), geared())
	assert.ErrorIs(t, err, ErrNotConfigured)

	path := filepath.Join(t.TempDir(), "score.lua")
	require.NoError(t, os.WriteFile(path, []byte(echoScript), 0o644))

	fn, err = New(Config{Script: path})
	require.NoError(t, err)
	score, _, err := fn.Score(context.Background(), geared())
	require.NoError(t, err)
	assert.InDelta(t, 70.035, score, 1e-9)

	_, err = New(Config{Script: filepath.Join(t.TempDir(), "missing.lua")})
	assert.Error(t, err)
}
