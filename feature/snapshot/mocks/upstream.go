package mocks

import (
	"context"

	"roleboard/core/upstream"

	"github.com/stretchr/testify/mock"
)

// UpstreamClient is a testify mock of snapshot.UpstreamClient.
type UpstreamClient struct {
	mock.Mock
}

func (m *UpstreamClient) FetchRoleList(ctx context.Context, uid, credential string) (*upstream.RoleList, error) {
	args := m.Called(ctx, uid, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.RoleList), args.Error(1)
}

func (m *UpstreamClient) FetchCharacter(ctx context.Context, roleID, uid, credential string) (map[string]any, error) {
	args := m.Called(ctx, roleID, uid, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}
