package testutil

import (
	"context"

	"github.com/schemawatch/schemawatch/internal/openapi"
	"github.com/stretchr/testify/mock"
)

type MockSchemaProvider struct {
	mock.Mock
}

func (m *MockSchemaProvider) GetSchema(
	ctx context.Context,
	source string,
	cred *openapi.SSHCredential,
) (map[string]any, error) {
	args := m.Called(ctx, source, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}
