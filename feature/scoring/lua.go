package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"roleboard/feature/snapshot"

	"github.com/Shopify/go-lua"
)

var (
	// ErrNotConfigured is returned by Unavailable.
	ErrNotConfigured = errors.New("score function not configured")
	// ErrBadResult is returned when the script does not return a numeric score.
	ErrBadResult = errors.New("score function returned an invalid result")
)

// LuaScorer scores characters with a Lua function.
type LuaScorer struct {
	mu    sync.Mutex
	state *lua.State
	fn    string
}

// NewLuaScorer compiles source and checks that it defines fn.
func NewLuaScorer(source, fn string) (*LuaScorer, error) {
	state := newState()
	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return finish(state, fn)
}

// LoadLuaScorer compiles the script at path.
func LoadLuaScorer(path, fn string) (*LuaScorer, error) {
	state := newState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua %s: %w", path, err)
	}
	return finish(state, fn)
}

// newState opens the libraries a scoring script may use. io and os are left out.
func newState() *lua.State {
	state := lua.NewState()
	for _, lib := range []struct {
		name string
		open lua.Function
	}{
		{"_G", lua.BaseOpen},
		{"string", lua.StringOpen},
		{"table", lua.TableOpen},
		{"math", lua.MathOpen},
	} {
		lua.Require(state, lib.name, lib.open, true)
		state.Pop(1)
	}
	return state
}

func finish(state *lua.State, fn string) (*LuaScorer, error) {
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	state.Global(fn)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("lua script does not define function %q", fn)
	}
	return &LuaScorer{state: state, fn: fn}, nil
}

// Score calls the script function with b.
func (s *LuaScorer) Score(ctx context.Context, b snapshot.Blob) (float64, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	top := s.state.Top()
	defer s.state.SetTop(top)

	s.state.Global(s.fn)
	pushValue(s.state, map[string]any(b))
	if err := s.state.ProtectedCall(1, 2, 0); err != nil {
		return 0, "", fmt.Errorf("lua %s: %w", s.fn, err)
	}

	if !s.state.IsNumber(-2) {
		return 0, "", ErrBadResult
	}
	score, _ := s.state.ToNumber(-2)

	var damage string
	switch {
	case s.state.IsNil(-1):
		damage = "0"
	case s.state.IsString(-1):
		// Numbers also satisfy IsString and convert here.
		damage, _ = s.state.ToString(-1)
	default:
		return 0, "", ErrBadResult
	}
	return score, damage, nil
}

// pushValue converts a decoded JSON value into a Lua value on the stack.
func pushValue(l *lua.State, v any) {
	switch t := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(t)
	case float64:
		l.PushNumber(t)
	case int:
		l.PushInteger(t)
	case string:
		l.PushString(t)
	case []any:
		l.CreateTable(len(t), 0)
		for i, item := range t {
			pushValue(l, item)
			l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		l.CreateTable(0, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pushValue(l, t[k])
			l.SetField(-2, k)
		}
	case snapshot.Blob:
		pushValue(l, map[string]any(t))
	default:
		l.PushString(fmt.Sprint(t))
	}
}

// Unavailable is the ScoreFunction used when no script is configured.
// Every call fails, so geared characters are stored as 0/0.
type Unavailable struct{}

func (Unavailable) Score(context.Context, snapshot.Blob) (float64, string, error) {
	return 0, "", ErrNotConfigured
}

// New builds the configured ScoreFunction.
func New(cfg Config) (snapshot.ScoreFunction, error) {
	if cfg.Script == "" {
		return Unavailable{}, nil
	}
	fn := cfg.Function
	if fn == "" {
		fn = "score"
	}
	return LoadLuaScorer(cfg.Script, fn)
}
