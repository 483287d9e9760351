package snapshot_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"roleboard/core/metrics"
	storagemocks "roleboard/core/storage/mocks"
	"roleboard/core/upstream"
	"roleboard/feature/snapshot"
	"roleboard/feature/snapshot/mocks"
	"roleboard/feature/snapshot/models"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scorerFunc func(ctx context.Context, b snapshot.Blob) (float64, string, error)

func (f scorerFunc) Score(ctx context.Context, b snapshot.Blob) (float64, string, error) {
	return f(ctx, b)
}

type recordingListener struct {
	mu      sync.Mutex
	changed map[string][]string
}

func (r *recordingListener) SnapshotsChanged(_ context.Context, uid string, roleIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.changed == nil {
		r.changed = map[string][]string{}
	}
	r.changed[uid] = append(r.changed[uid], roleIDs...)
}

func geared(roleID int, name string) map[string]any {
	b := character(roleID, name, 0)
	b["phantomData"] = map[string]any{
		"cost":             float64(12),
		"equipPhantomList": []any{map[string]any{"cost": float64(4)}},
	}
	return b
}

type pipeline struct {
	service  *snapshot.Service
	client   *mocks.UpstreamClient
	accounts *snapshot.Accounts
	store    *snapshot.Store
	scored   *atomic.Int32
	listener *recordingListener
}

func newPipeline(t *testing.T, archive *snapshot.Archive) *pipeline {
	db := newTestDB(t)
	p := &pipeline{
		client:   new(mocks.UpstreamClient),
		accounts: snapshot.NewAccounts(db),
		store:    snapshot.NewStore(db),
		scored:   &atomic.Int32{},
		listener: &recordingListener{},
	}
	scorer := scorerFunc(func(_ context.Context, b snapshot.Blob) (float64, string, error) {
		p.scored.Add(1)
		return 180.123, "10,000", nil
	})
	p.service = snapshot.NewService(snapshot.Config{Concurrency: 2, Archive: true, VariantRoleIDs: "1501,1604"}, snapshot.Deps{
		Accounts: p.accounts,
		Client:   p.client,
		Scorer:   scorer,
		Store:    p.store,
		Archive:  archive,
		Logger:   zap.NewNop(),
		Metrics:  metrics.New(),
	})
	p.service.AddListener(p.listener)

	require.NoError(t, p.accounts.Save(context.Background(), &models.Account{UID: "100", UserID: "alice", BotID: "qq", Credential: "tok"}))
	return p
}

func roster(ids ...int) *upstream.RoleList {
	list := &upstream.RoleList{}
	for _, id := range ids {
		n := 0
		list.RoleList = append(list.RoleList, upstream.RoleSummary{RoleID: id, ChainUnlockNum: &n})
	}
	return list
}

var aliceRequest = snapshot.RefreshRequest{UID: "100", UserID: "alice", BotID: "qq"}

func TestRefresh_FullThenDrop(t *testing.T) {
	p := newPipeline(t, nil)
	ctx := context.Background()

	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(roster(1205, 1102), nil).Once()
	p.client.On("FetchCharacter", mock.Anything, "1205", "100", "tok").Return(geared(1205, "Changli"), nil)
	p.client.On("FetchCharacter", mock.Anything, "1102", "100", "tok").Return(map[string]any(character(1102, "Sanhua", 0)), nil)

	res, err := p.service.Refresh(ctx, aliceRequest)
	require.NoError(t, err)
	assert.True(t, res.Owner)
	assert.Equal(t, []string{"1102", "1205"}, res.Updated)
	assert.Equal(t, snapshot.StatusUngeared, res.Scores["1102"].Status)
	assert.Equal(t, int32(1), p.scored.Load())

	row, err := p.store.Get(ctx, "100", "1205")
	require.NoError(t, err)
	assert.Equal(t, 180.12, row.Score)
	assert.Equal(t, 10000.0, row.Damage)

	// Second refresh: 1102 disappeared from the roster, 1205 unchanged.
	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(roster(1205), nil).Once()
	res, err = p.service.Refresh(ctx, aliceRequest)
	require.NoError(t, err)
	assert.Equal(t, []string{"1102"}, res.Removed)
	assert.Equal(t, []string{"1205"}, res.Unchanged)
	assert.Equal(t, int32(1), p.scored.Load())
	assert.Equal(t, []string{"1205"}, storedRoleIDs(t, p.store, "100"))

	row, err = p.store.Get(ctx, "100", "1205")
	require.NoError(t, err)
	assert.Equal(t, 180.12, row.Score)

	assert.ElementsMatch(t, []string{"1102", "1205", "1102"}, p.listener.changed["100"])
}

func TestRefresh_FailedFetchKeepsStoredCharacter(t *testing.T) {
	p := newPipeline(t, nil)
	ctx := context.Background()

	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(roster(1102, 1205), nil)
	p.client.On("FetchCharacter", mock.Anything, "1205", "100", "tok").Return(geared(1205, "Changli"), nil)
	p.client.On("FetchCharacter", mock.Anything, "1102", "100", "tok").Return(geared(1102, "Sanhua"), nil).Once()

	_, err := p.service.Refresh(ctx, aliceRequest)
	require.NoError(t, err)
	require.Equal(t, []string{"1102", "1205"}, storedRoleIDs(t, p.store, "100"))

	p.client.On("FetchCharacter", mock.Anything, "1102", "100", "tok").Return(nil, errors.New("upstream 502")).Once()

	res, err := p.service.Refresh(ctx, aliceRequest)
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.Equal(t, 2, res.Characters)
	assert.Equal(t, []string{"1102", "1205"}, storedRoleIDs(t, p.store, "100"))

	row, err := p.store.Get(ctx, "100", "1102")
	require.NoError(t, err)
	assert.Equal(t, 180.12, row.Score)
	assert.Equal(t, 10000.0, row.Damage)
}

func TestRefresh_ShowcaseKeepsHiddenCharacters(t *testing.T) {
	p := newPipeline(t, nil)
	ctx := context.Background()

	_, err := p.store.Sync(ctx, "100", []snapshot.Blob{
		character(1102, "Sanhua", 0), character(1205, "Changli", 0), character(1301, "Calcharo", 0),
	}, map[string]float64{"1102": 120}, nil)
	require.NoError(t, err)

	list := roster(1102, 1205, 1301)
	list.ShowRoleIDList = []int{1205}
	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(list, nil)
	p.client.On("FetchCharacter", mock.Anything, "1205", "100", "tok").Return(geared(1205, "Changli"), nil)

	res, err := p.service.Refresh(ctx, snapshot.RefreshRequest{UID: "100", UserID: "bob", BotID: "qq"})
	require.NoError(t, err)
	assert.False(t, res.Owner)
	assert.Empty(t, res.Removed)
	assert.Equal(t, []string{"1205"}, res.Updated)
	assert.Equal(t, []string{"1102", "1205", "1301"}, storedRoleIDs(t, p.store, "100"))

	row, err := p.store.Get(ctx, "100", "1102")
	require.NoError(t, err)
	assert.Equal(t, 120.0, row.Score)
	p.client.AssertNotCalled(t, "FetchCharacter", mock.Anything, "1102", mock.Anything, mock.Anything)
}

func TestRefresh_ConcurrentTargetedRefreshesMerge(t *testing.T) {
	p := newPipeline(t, nil)
	ctx := context.Background()

	_, err := p.store.Sync(ctx, "100", []snapshot.Blob{character(1205, "Changli", 0)}, nil, nil)
	require.NoError(t, err)

	// Both fetches finish before either refresh reaches the store.
	var fetched sync.WaitGroup
	fetched.Add(2)
	meet := func(mock.Arguments) {
		fetched.Done()
		fetched.Wait()
	}
	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(roster(1205, 1102, 1301), nil)
	p.client.On("FetchCharacter", mock.Anything, "1102", "100", "tok").Run(meet).Return(geared(1102, "Sanhua"), nil)
	p.client.On("FetchCharacter", mock.Anything, "1301", "100", "tok").Run(meet).Return(geared(1301, "Calcharo"), nil)

	var wg sync.WaitGroup
	for _, id := range []string{"1102", "1301"} {
		wg.Add(1)
		go func(roleID string) {
			defer wg.Done()
			_, err := p.service.Refresh(ctx, snapshot.RefreshRequest{
				UID: "100", UserID: "alice", BotID: "qq",
				Selection: snapshot.Selection{RoleIDs: []string{roleID}},
			})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, []string{"1102", "1205", "1301"}, storedRoleIDs(t, p.store, "100"))
}

func TestRefresh_TargetedKeepsOtherCharacters(t *testing.T) {
	p := newPipeline(t, nil)
	ctx := context.Background()

	_, err := p.store.Sync(ctx, "100", []snapshot.Blob{character(1205, "Changli", 0), character(1501, "Rover", 0)}, map[string]float64{"1205": 99}, nil)
	require.NoError(t, err)

	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(roster(1205, 1102, 1604), nil)
	p.client.On("FetchCharacter", mock.Anything, "1604", "100", "tok").Return(map[string]any(character(1604, "Rover", 0)), nil)

	res, err := p.service.Refresh(ctx, snapshot.RefreshRequest{
		UID: "100", UserID: "alice", BotID: "qq",
		Selection: snapshot.Selection{RoleIDs: []string{"1604"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1501"}, res.Removed)
	assert.ElementsMatch(t, []string{"1205", "1604"}, storedRoleIDs(t, p.store, "100"))

	row, err := p.store.Get(ctx, "100", "1205")
	require.NoError(t, err)
	assert.Equal(t, 99.0, row.Score)
	p.client.AssertNotCalled(t, "FetchCharacter", mock.Anything, "1205", mock.Anything, mock.Anything)
}

func TestRefresh_AccountLevelFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("Role List Failure", func(t *testing.T) {
		p := newPipeline(t, nil)
		p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(nil, errors.New("timeout"))

		_, err := p.service.Refresh(ctx, aliceRequest)
		assert.ErrorIs(t, err, snapshot.ErrRoleListFailed)
		p.client.AssertNotCalled(t, "FetchCharacter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid Credential", func(t *testing.T) {
		p := newPipeline(t, nil)
		p.client.On("FetchRoleList", mock.Anything, "100", "tok").
			Return(nil, errors.Join(upstream.ErrCredentialInvalid, errors.New("code=220")))

		events := &accountEvents{}
		p.accounts.AddListener(events)

		_, err := p.service.Refresh(ctx, aliceRequest)
		assert.ErrorIs(t, err, snapshot.ErrCredentialInvalid)
		assert.Equal(t, [][]string{{"100"}}, events.calls)

		_, _, err = p.accounts.Credential(ctx, "100", "alice", "qq")
		assert.ErrorIs(t, err, snapshot.ErrNoCredential)
	})

	t.Run("No Credential", func(t *testing.T) {
		p := newPipeline(t, nil)
		require.NoError(t, p.accounts.MarkCredentialInvalid(ctx, "100", "tok", "invalid"))

		_, err := p.service.Refresh(ctx, aliceRequest)
		assert.ErrorIs(t, err, snapshot.ErrNoCredential)
	})
}

func TestRefresh_NoData(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, nil)

	_, err := p.store.Sync(ctx, "100", []snapshot.Blob{character(1205, "Changli", 0)}, nil, nil)
	require.NoError(t, err)

	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(roster(1205), nil)
	p.client.On("FetchCharacter", mock.Anything, "1205", "100", "tok").Return(nil, errors.New("boom"))

	_, err = p.service.Refresh(ctx, aliceRequest)
	assert.ErrorIs(t, err, snapshot.ErrNoCharacterData)

	_, err = p.service.Refresh(ctx, snapshot.RefreshRequest{UID: "100", UserID: "alice", BotID: "qq", Selection: snapshot.Selection{RoleIDs: []string{"1205"}}})
	assert.ErrorIs(t, err, snapshot.ErrNoRequestedData)

	// The store is untouched.
	assert.Equal(t, []string{"1205"}, storedRoleIDs(t, p.store, "100"))
}

func TestRefresh_ArchiveAndImport(t *testing.T) {
	client := new(storagemocks.Client)
	var uploaded []byte
	client.On("PutObject", mock.Anything, "bucket", "players/100/rawData.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { uploaded, _ = io.ReadAll(args.Get(3).(io.Reader)) }).
		Return(minio.UploadInfo{}, nil)

	p := newPipeline(t, snapshot.NewArchive(client, "bucket"))
	ctx := context.Background()

	p.client.On("FetchRoleList", mock.Anything, "100", "tok").Return(roster(1205), nil)
	p.client.On("FetchCharacter", mock.Anything, "1205", "100", "tok").Return(geared(1205, "Changli"), nil)

	_, err := p.service.Refresh(ctx, aliceRequest)
	require.NoError(t, err)
	require.NotEmpty(t, uploaded)

	client.On("GetObject", mock.Anything, "bucket", "players/100/rawData.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(uploaded)), nil)

	_, err = p.store.Sync(ctx, "100", nil, nil, nil)
	require.NoError(t, err)

	res, err := p.service.Import(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, []string{"1205"}, res.Updated)
	assert.Equal(t, []string{"1205"}, storedRoleIDs(t, p.store, "100"))
}

func TestImport_ArchiveDisabled(t *testing.T) {
	p := newPipeline(t, nil)
	_, err := p.service.Import(context.Background(), "100")
	assert.ErrorIs(t, err, snapshot.ErrArchiveDisabled)
}

func TestSetConcurrency(t *testing.T) {
	p := newPipeline(t, nil)
	assert.Equal(t, 2, p.service.Concurrency())
	p.service.SetConcurrency(0)
	assert.Equal(t, 1, p.service.Concurrency())
	p.service.SetConcurrency(8)
	assert.Equal(t, 8, p.service.Concurrency())
}
