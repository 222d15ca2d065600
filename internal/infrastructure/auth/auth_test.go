package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	apperrors "github.com/axgate/llmgw/pkg/errors"
)

type fakeAuthKeyRepo struct {
	byKey       map[string]*entity.AuthKey
	usageCalls  []uint
	recordUsage func(id uint, at time.Time) error
}

func (f *fakeAuthKeyRepo) FindByID(ctx context.Context, id uint) (*entity.AuthKey, error) {
	for _, k := range f.byKey {
		if k.ID == id {
			return k, nil
		}
	}
	return nil, apperrors.NewNotFoundError("not found")
}

func (f *fakeAuthKeyRepo) FindByKey(ctx context.Context, key string) (*entity.AuthKey, error) {
	k, ok := f.byKey[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("not found")
	}
	return k, nil
}

func (f *fakeAuthKeyRepo) List(ctx context.Context, p valueobject.Pagination) ([]*entity.AuthKey, int64, error) {
	return nil, 0, nil
}
func (f *fakeAuthKeyRepo) Create(ctx context.Context, k *entity.AuthKey) error { return nil }
func (f *fakeAuthKeyRepo) Update(ctx context.Context, k *entity.AuthKey) error { return nil }
func (f *fakeAuthKeyRepo) SoftDelete(ctx context.Context, id uint) (int64, error) {
	return 0, nil
}
func (f *fakeAuthKeyRepo) RecordUsage(ctx context.Context, id uint, at time.Time) error {
	f.usageCalls = append(f.usageCalls, id)
	if f.recordUsage != nil {
		return f.recordUsage(id, at)
	}
	return nil
}

func TestExtractToken_Precedence(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer from-auth")
	h.Set("x-api-key", "from-api-key")
	assert.Equal(t, "from-auth", ExtractToken(h))

	h2 := http.Header{}
	h2.Set("x-api-key", "from-api-key")
	h2.Set("x-goog-api-key", "from-goog")
	assert.Equal(t, "from-api-key", ExtractToken(h2))

	h3 := http.Header{}
	h3.Set("x-goog-api-key", "from-goog")
	assert.Equal(t, "from-goog", ExtractToken(h3))

	assert.Equal(t, "", ExtractToken(http.Header{}))
}

func TestAuthenticate_Success(t *testing.T) {
	repo := &fakeAuthKeyRepo{byKey: map[string]*entity.AuthKey{
		"sk-good": {ID: 1, Status: true, AllowAll: true},
	}}
	a := New(repo, zap.NewNop())

	h := http.Header{}
	h.Set("Authorization", "Bearer sk-good")

	key, admission, err := a.Authenticate(context.Background(), h, "1.2.3.4", "curl/8", "gpt-demo", valueobject.DialectOpenAIChat, valueobject.NewCapabilitySet())
	require.NoError(t, err)
	assert.Equal(t, uint(1), key.ID)
	assert.Equal(t, uint(1), admission.AuthKeyID)
	assert.Equal(t, "gpt-demo", admission.ModelName)
	assert.Equal(t, "1.2.3.4", admission.RemoteIP)
}

func TestAuthenticate_MissingCredential(t *testing.T) {
	a := New(&fakeAuthKeyRepo{byKey: map[string]*entity.AuthKey{}}, zap.NewNop())
	_, _, err := a.Authenticate(context.Background(), http.Header{}, "", "", "m", valueobject.DialectOpenAIChat, 0)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthorized, err.(*apperrors.AppError).Code)
}

func TestAuthenticate_ModelNotAllowed(t *testing.T) {
	repo := &fakeAuthKeyRepo{byKey: map[string]*entity.AuthKey{
		"sk-scoped": {ID: 2, Status: true, AllowAll: false, Models: map[string]struct{}{"other-model": {}}},
	}}
	a := New(repo, zap.NewNop())
	h := http.Header{}
	h.Set("x-api-key", "sk-scoped")

	_, _, err := a.Authenticate(context.Background(), h, "", "", "gpt-demo", valueobject.DialectOpenAIChat, 0)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthorized, err.(*apperrors.AppError).Code)
}

func TestAuthenticate_ExpiredKey(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	repo := &fakeAuthKeyRepo{byKey: map[string]*entity.AuthKey{
		"sk-expired": {ID: 3, Status: true, AllowAll: true, ExpiresAt: &past},
	}}
	a := New(repo, zap.NewNop())
	h := http.Header{}
	h.Set("x-api-key", "sk-expired")

	_, _, err := a.Authenticate(context.Background(), h, "", "", "m", valueobject.DialectOpenAIChat, 0)
	require.Error(t, err)
}

func TestRecordUsage_CallsRepository(t *testing.T) {
	repo := &fakeAuthKeyRepo{byKey: map[string]*entity.AuthKey{}}
	a := New(repo, zap.NewNop())
	a.RecordUsage(context.Background(), 7)
	require.Len(t, repo.usageCalls, 1)
	assert.Equal(t, uint(7), repo.usageCalls[0])
}

func TestRecordUsage_ZeroIDIsNoop(t *testing.T) {
	repo := &fakeAuthKeyRepo{byKey: map[string]*entity.AuthKey{}}
	a := New(repo, zap.NewNop())
	a.RecordUsage(context.Background(), 0)
	assert.Empty(t, repo.usageCalls)
}
