package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"roleboard/core/limiter"
	"roleboard/core/logger"
	"roleboard/core/metrics"
	"roleboard/core/reconcile"
	"roleboard/core/telemetry"
	"roleboard/core/upstream"
	"roleboard/feature/snapshot/models"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SyncListener is told which characters of an account changed after a sync.
type SyncListener interface {
	SnapshotsChanged(ctx context.Context, uid string, roleIDs []string)
}

// RefreshRequest describes one refresh.
type RefreshRequest struct {
	UID    string `json:"uid"`
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
	// Credential overrides the account lookup when set.
	Credential string `json:"-"`
	// Owner marks Credential as belonging to UID's owner.
	Owner     bool      `json:"-"`
	Selection Selection `json:"selection"`
}

// RefreshResult summarises a refresh.
type RefreshResult struct {
	UID        string                 `json:"uid"`
	Owner      bool                   `json:"owner"`
	Updated    []string               `json:"updated"`
	Unchanged  []string               `json:"unchanged"`
	Removed    []string               `json:"removed"`
	Characters int                    `json:"characters"`
	Scores     map[string]ScoreResult `json:"scores"`
}

// Service runs the refresh pipeline.
type Service struct {
	cfg       Config
	accounts  *Accounts
	client    UpstreamClient
	fetcher   *Fetcher
	sanitizer *Sanitizer
	scoring   *ScoringStage
	store     *Store
	archive   *Archive
	listeners []SyncListener
	logger    *zap.Logger
	metrics   *metrics.Metrics

	concurrency atomic.Int64
}

// Deps bundles the collaborators of a Service.
type Deps struct {
	Accounts *Accounts
	Client   UpstreamClient
	Scorer   ScoreFunction
	Store    *Store
	// Archive is optional.
	Archive *Archive
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewService wires the pipeline stages.
func NewService(cfg Config, deps Deps) *Service {
	s := &Service{
		cfg:       cfg,
		accounts:  deps.Accounts,
		client:    deps.Client,
		sanitizer: NewSanitizer(deps.Logger, nil),
		scoring:   NewScoringStage(deps.Scorer, deps.Logger, deps.Metrics),
		store:     deps.Store,
		archive:   deps.Archive,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	s.concurrency.Store(int64(cfg.Concurrency))

	mode := limiter.Isolated
	if cfg.SharedLimiter {
		mode = limiter.Shared
	}
	s.fetcher = NewFetcher(deps.Client, limiter.NewManager(mode, s.Concurrency), deps.Logger, deps.Metrics)
	return s
}

// AddListener registers a sync listener.
func (s *Service) AddListener(l SyncListener) {
	s.listeners = append(s.listeners, l)
}

// Concurrency returns the current fetch concurrency cap.
func (s *Service) Concurrency() int {
	return int(s.concurrency.Load())
}

// SetConcurrency changes the fetch concurrency cap at runtime.
func (s *Service) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	s.concurrency.Store(int64(n))
}

// Store exposes the snapshot store.
func (s *Service) Store() *Store { return s.store }

// Accounts exposes the account repository.
func (s *Service) Accounts() *Accounts { return s.accounts }

// Refresh fetches, sanitizes, scores and syncs the characters of one account.
// Account-level failures return before the store is touched.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (res *RefreshResult, err error) {
	start := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, "snapshot.Refresh")
	span.SetAttributes(attribute.String("uid", req.UID), attribute.Bool("all", req.Selection.All()))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		s.metrics.ObserveRefresh(outcome(err), time.Since(start))
	}()

	l := logger.ForAccount(s.logger, req.UID)

	credential, owner, err := s.resolveCredential(ctx, req)
	if err != nil {
		return nil, err
	}

	roles, err := s.client.FetchRoleList(ctx, req.UID, credential.Credential)
	if err != nil {
		if errors.Is(err, upstream.ErrCredentialInvalid) {
			if markErr := s.accounts.MarkCredentialInvalid(ctx, credential.UID, credential.Credential, "invalid"); markErr != nil {
				l.Error("Failed to flag invalid credential", zap.Error(markErr))
			}
			return nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRoleListFailed, err)
	}
	if owner {
		if err := s.accounts.Touch(ctx, req.UID); err != nil {
			l.Warn("Failed to touch account", zap.Error(err))
		}
	}

	ids := TargetIDs(roles, owner, req.Selection)
	fetched := s.fetcher.Fetch(ctx, req.UID, credential.Credential, ids)

	before := len(fetched)
	clean := s.sanitizer.SanitizeAll(req.UID, fetched, roles.ChainUnlocks())
	for range before - len(clean) {
		s.metrics.SanitizeDropped()
	}

	if len(clean) == 0 {
		if req.Selection.All() {
			return nil, ErrNoCharacterData
		}
		return nil, ErrNoRequestedData
	}

	res, err = s.reconcileAndSync(ctx, req.UID, clean, req.Selection, roles.Roster())
	if err != nil {
		return nil, err
	}
	res.Owner = owner

	l.Info("Refresh completed",
		zap.Int("fetched", before),
		zap.Int("characters", res.Characters),
		zap.Int("updated", len(res.Updated)),
		zap.Int("removed", len(res.Removed)),
	)
	return res, nil
}

func (s *Service) resolveCredential(ctx context.Context, req RefreshRequest) (*models.Account, bool, error) {
	if req.Credential != "" {
		return &models.Account{UID: req.UID, Credential: req.Credential}, req.Owner, nil
	}
	acc, owner, err := s.accounts.Credential(ctx, req.UID, req.UserID, req.BotID)
	if err != nil {
		return nil, false, err
	}
	return acc, owner, nil
}

// reconcileAndSync diffs, scores and persists a sanitized character list.
// The stored set is read and planned under the account lock. roster lists the
// role ids the account reported; a full refresh keeps stored characters that
// are still on it.
func (s *Service) reconcileAndSync(ctx context.Context, uid string, incoming []Blob, sel Selection, roster []string) (*RefreshResult, error) {
	var (
		plan    *reconcile.Plan[string, Blob]
		results map[string]ScoreResult
	)
	synced, err := s.store.SyncWith(ctx, uid, func(rows []models.CharacterSnapshot) (*SyncInput, error) {
		stored := make(map[string]Blob, len(rows))
		scores := make(map[string]float64, len(rows))
		damages := make(map[string]float64, len(rows))
		for _, row := range rows {
			b, err := DecodeBlob(row.RawData)
			if err != nil {
				s.logger.Warn("Ignoring undecodable stored snapshot",
					zap.String("uid", uid), zap.String("role_id", row.RoleID), zap.Error(err))
				continue
			}
			stored[row.RoleID] = b
			scores[row.RoleID] = row.Score
			damages[row.RoleID] = row.Damage
		}

		plan = PlanRefresh(stored, incoming, sel, s.cfg.VariantGroups(), roster)

		results = s.scoring.ScoreAll(ctx, uid, plan.Changed())
		for id, r := range results {
			scores[id] = r.Score
			damages[id] = r.Damage
		}

		in := &SyncInput{Final: plan.Final(), Scores: scores, Damages: damages}
		if s.archive != nil && s.cfg.Archive {
			in.Committed = func(*SyncResult) {
				if err := s.archive.Save(ctx, uid, in.Final); err != nil {
					s.logger.Warn("Raw data archive failed", zap.String("uid", uid), zap.Error(err))
				}
			}
		}
		return in, nil
	})
	if err != nil {
		s.logger.Error("Snapshot sync failed", zap.String("uid", uid), zap.Error(err))
		return nil, err
	}
	s.metrics.CharactersSynced("insert", len(synced.Inserted))
	s.metrics.CharactersSynced("update", len(synced.Updated))
	s.metrics.CharactersSynced("remove", len(synced.Removed))

	res := &RefreshResult{
		UID:        uid,
		Removed:    plan.ToRemove,
		Characters: len(plan.Incoming) + len(plan.Carried),
		Scores:     results,
	}
	for _, b := range plan.Changed() {
		res.Updated = append(res.Updated, b.RoleID())
	}
	for _, b := range plan.Unchanged {
		res.Unchanged = append(res.Unchanged, b.RoleID())
	}
	sort.Strings(res.Updated)
	sort.Strings(res.Unchanged)

	changed := append(append([]string{}, res.Updated...), res.Removed...)
	s.notify(ctx, uid, changed)

	return res, nil
}

func (s *Service) notify(ctx context.Context, uid string, roleIDs []string) {
	if len(roleIDs) == 0 {
		return
	}
	for _, l := range s.listeners {
		l.SnapshotsChanged(ctx, uid, roleIDs)
	}
}

// Characters returns the stored characters of uid.
func (s *Service) Characters(ctx context.Context, uid string) ([]models.CharacterSnapshot, error) {
	return s.store.ListByUID(ctx, uid)
}

// Import restores uid from its archived raw data, rescoring every character.
func (s *Service) Import(ctx context.Context, uid string) (*RefreshResult, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	blobs, err := s.archive.Load(ctx, uid)
	if err != nil {
		return nil, err
	}

	results := s.scoring.ScoreAll(ctx, uid, blobs)
	scores, damages := SplitResults(results)
	synced, err := s.store.Sync(ctx, uid, blobs, scores, damages)
	if err != nil {
		return nil, err
	}

	res := &RefreshResult{
		UID:        uid,
		Updated:    append(synced.Inserted, synced.Updated...),
		Removed:    synced.Removed,
		Characters: len(blobs),
		Scores:     results,
	}
	sort.Strings(res.Updated)
	s.notify(ctx, uid, append(append([]string{}, res.Updated...), res.Removed...))
	return res, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, ErrCredentialInvalid):
		return "credential_invalid"
	case errors.Is(err, ErrRoleListFailed):
		return "role_list_failed"
	case errors.Is(err, ErrNoCharacterData), errors.Is(err, ErrNoRequestedData):
		return "no_data"
	default:
		return "error"
	}
}
