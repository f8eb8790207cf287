package resilience

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/flatstore"
	"github.com/Merlito456/ospsurveyengine/internal/storage"
)

// memTier is an in-memory Tier with switchable failures.
type memTier struct {
	data    map[string][]byte
	failGet error
	failSet error
}

func newMem() *memTier { return &memTier{data: map[string][]byte{}} }

func (m *memTier) Get(_ context.Context, key string) ([]byte, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	return m.data[key], nil
}

func (m *memTier) Set(_ context.Context, key string, value []byte) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memTier) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestSet_WritesBothTiers(t *testing.T) {
	p, s := newMem(), newMem()
	st := NewStore(p, s, logging.Nop())

	require.NoError(t, st.Set(context.Background(), "k", []byte("v")))
	assert.Equal(t, []byte("v"), p.data["k"])
	assert.Equal(t, []byte("v"), s.data["k"])
}

func TestGet_HealsPrimaryFromSecondary(t *testing.T) {
	p, s := newMem(), newMem()
	st := NewStore(p, s, logging.Nop())
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "expiry", []byte("1700000000000")))
	delete(p.data, "expiry")

	v, err := st.Get(ctx, "expiry")
	require.NoError(t, err)
	assert.Equal(t, []byte("1700000000000"), v)
	assert.Equal(t, []byte("1700000000000"), p.data["expiry"], "primary must be re-populated")
}

func TestGet_HealsSecondaryFromPrimary(t *testing.T) {
	p, s := newMem(), newMem()
	st := NewStore(p, s, logging.Nop())
	p.data["device"] = []byte(`"ABC123"`)

	v, err := st.Get(context.Background(), "device")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"ABC123"`), v)
	assert.Equal(t, []byte(`"ABC123"`), s.data["device"])
}

func TestGet_PrimaryWinsOnDisagreement(t *testing.T) {
	p, s := newMem(), newMem()
	st := NewStore(p, s, logging.Nop())
	p.data["k"] = []byte("new")
	s.data["k"] = []byte("stale")

	v, err := st.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
	assert.Equal(t, []byte("new"), s.data["k"])
}

func TestGet_AbsentEverywhere(t *testing.T) {
	st := NewStore(newMem(), newMem(), logging.Nop())

	v, err := st.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestGet_PrimaryUnavailableFallsBack(t *testing.T) {
	p, s := newMem(), newMem()
	p.failGet = errors.New("database is locked")
	s.data["k"] = []byte("v")
	st := NewStore(p, s, logging.Nop())

	v, err := st.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestGet_BothUnavailable(t *testing.T) {
	p, s := newMem(), newMem()
	p.failGet = errors.New("p down")
	s.failGet = errors.New("s down")
	st := NewStore(p, s, logging.Nop())

	_, err := st.Get(context.Background(), "k")
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestSet_SecondaryFailureIsNotPropagated(t *testing.T) {
	p, s := newMem(), newMem()
	s.failSet = errors.New("read-only fs")
	st := NewStore(p, s, logging.Nop())

	require.NoError(t, st.Set(context.Background(), "k", []byte("v")))
	assert.Equal(t, []byte("v"), p.data["k"])
}

func TestSet_PrimaryFailureToleratedWhenSecondaryOK(t *testing.T) {
	p, s := newMem(), newMem()
	p.failSet = errors.New("cannot open")
	st := NewStore(p, s, logging.Nop())

	require.NoError(t, st.Set(context.Background(), "k", []byte("v")))
	assert.Equal(t, []byte("v"), s.data["k"])
}

func TestSet_BothFail(t *testing.T) {
	p, s := newMem(), newMem()
	p.failSet = errors.New("p")
	s.failSet = errors.New("s")
	st := NewStore(p, s, logging.Nop())

	err := st.Set(context.Background(), "k", []byte("v"))
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestJSONHelpers(t *testing.T) {
	st := NewStore(newMem(), newMem(), logging.Nop())
	ctx := context.Background()

	_, ok, err := GetJSON[[]string](ctx, st, "codes")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, PutJSON(ctx, st, "codes", []string{"AAAAAA", "BBBBBB"}))
	codes, ok, err := GetJSON[[]string](ctx, st, "codes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, codes)

	require.NoError(t, st.Set(ctx, "bad", []byte("{")))
	_, _, err = GetJSON[int](ctx, st, "bad")
	require.Error(t, err)
}

// Exercises the real backends: SQLite app_config as primary, TOML file as
// secondary. Deleting only from the primary must be healed on next read.
func TestHealing_WithRealTiers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repos, err := storage.InitDatabase(ctx, filepath.Join(dir, "survey.db"))
	require.NoError(t, err)
	defer repos.Close()

	st := NewStore(repos.Config, flatstore.New(filepath.Join(dir, "fallback.toml")), logging.Nop())

	require.NoError(t, PutJSON(ctx, st, "osp_survey_pro_device_id", "Q7W2ZK"))
	require.NoError(t, repos.Config.Delete(ctx, "osp_survey_pro_device_id"))

	id, ok, err := GetJSON[string](ctx, st, "osp_survey_pro_device_id")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q7W2ZK", id)

	raw, err := repos.Config.Get(ctx, "osp_survey_pro_device_id")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"Q7W2ZK"`), raw)
}
