package upload

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GSA/notifications-admin-sub001/internal/model"
	"github.com/GSA/notifications-admin-sub001/internal/storage"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

type fakeStore struct {
	objects  map[string][]byte
	metadata map[string]map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  map[string][]byte{},
		metadata: map[string]map[string]string{},
	}
}

func (f *fakeStore) Upload(_ context.Context, key string, body []byte, _ string, metadata map[string]string) error {
	f.objects[key] = body
	f.metadata[key] = metadata
	return nil
}

func (f *fakeStore) Download(_ context.Context, key string) ([]byte, error) {
	payload, ok := f.objects[key]
	if !ok {
		return nil, apperrors.NewStorageNotFound("bucket", key, nil)
	}
	return payload, nil
}

func (f *fakeStore) GetMetadata(_ context.Context, key string) (map[string]string, error) {
	meta, ok := f.metadata[key]
	if !ok {
		return nil, apperrors.NewStorageNotFound("bucket", key, nil)
	}
	return meta, nil
}

func (f *fakeStore) SetMetadata(_ context.Context, key string, metadata map[string]string) error {
	if _, ok := f.objects[key]; !ok {
		return apperrors.NewStorageNotFound("bucket", key, nil)
	}
	f.metadata[key] = metadata
	return nil
}

type fakeSeeder struct {
	seeded map[string]string
}

func (f *fakeSeeder) Seed(_ context.Context, jobID, csvText string) error {
	if f.seeded == nil {
		f.seeded = map[string]string{}
	}
	f.seeded[jobID] = csvText
	return nil
}

func newTestService(store, contacts ObjectStore, seeder RowSeeder) *Service {
	return NewService(store, contacts, seeder, logger.NewLogger(nil), metrics.NewMetrics("test", prometheus.NewRegistry()))
}

func TestPutStagesAndSeeds(t *testing.T) {
	store := newFakeStore()
	seeder := &fakeSeeder{}
	svc := newTestService(store, newFakeStore(), seeder)

	up, err := svc.Put(context.Background(), "svc-1", "user-1", "recipients.csv", model.TemplateTypeSMS,
		[]byte("phone number,name\r\n+15551230001,Alice\r\n\r\n"))
	require.NoError(t, err)

	assert.NotEmpty(t, up.ID)
	assert.Equal(t, 1, up.RowCount)
	assert.False(t, up.Valid)
	assert.Equal(t, "recipients.csv", up.OriginalFileName)

	key := storage.UploadKey("svc-1", up.ID)
	assert.Equal(t, "phone number,name\r\n+15551230001,Alice", string(store.objects[key]))
	assert.Equal(t, "phone number,name\r\n+15551230001,Alice", seeder.seeded[up.ID])
}

func TestPutRejectsEmptyFile(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStore(), &fakeSeeder{})

	_, err := svc.Put(context.Background(), "svc-1", "user-1", "empty.csv", model.TemplateTypeSMS, []byte("\r\n\r\n"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestPutContactListUsesContactBucket(t *testing.T) {
	store := newFakeStore()
	contacts := newFakeStore()
	svc := newTestService(store, contacts, &fakeSeeder{})

	up, err := svc.PutContactList(context.Background(), "svc-1", "user-1", "subscribers.csv",
		[]byte("phone number\r\n+15551230001"))
	require.NoError(t, err)

	assert.Empty(t, store.objects)
	assert.Len(t, contacts.objects, 1)
	assert.Equal(t, 1, up.RowCount)
}

func stageUpload(t *testing.T, svc *Service, csvText string) *model.Upload {
	t.Helper()
	up, err := svc.Put(context.Background(), "svc-1", "user-1", "recipients.csv", model.TemplateTypeSMS, []byte(csvText))
	require.NoError(t, err)
	return up
}

func TestValidateMarksUploadValid(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeStore(), &fakeSeeder{})
	up := stageUpload(t, svc, "phone number,name\r\n+15551230001,Alice")

	tmpl := &model.Template{Type: model.TemplateTypeSMS, Content: "Hello ((name))"}
	checked, err := svc.Validate(context.Background(), "svc-1", up.ID, tmpl, 1000)
	require.NoError(t, err)
	assert.True(t, checked.Valid)

	// The validity flag is durable object metadata, not in-process state.
	reread, err := svc.Get(context.Background(), "svc-1", up.ID)
	require.NoError(t, err)
	assert.True(t, reread.Valid)
}

func TestValidateMissingRequiredColumn(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStore(), &fakeSeeder{})
	up := stageUpload(t, svc, "name\r\nAlice")

	tmpl := &model.Template{Type: model.TemplateTypeSMS, Content: "Hello"}
	_, err := svc.Validate(context.Background(), "svc-1", up.ID, tmpl, 1000)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "phone number")
}

func TestValidateMissingPlaceholderColumn(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStore(), &fakeSeeder{})
	up := stageUpload(t, svc, "phone number\r\n+15551230001")

	tmpl := &model.Template{Type: model.TemplateTypeSMS, Content: "Hi ((first name)), ref ((reference))"}
	_, err := svc.Validate(context.Background(), "svc-1", up.ID, tmpl, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first name")
	assert.Contains(t, err.Error(), "reference")

	// A failed check never marks the upload valid.
	reread, err := svc.Get(context.Background(), "svc-1", up.ID)
	require.NoError(t, err)
	assert.False(t, reread.Valid)
}

func TestValidateEmailTemplateChecksSubject(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStore(), &fakeSeeder{})
	up, err := svc.Put(context.Background(), "svc-1", "user-1", "recipients.csv", model.TemplateTypeEmail,
		[]byte("email address\r\nalice@example.com"))
	require.NoError(t, err)

	tmpl := &model.Template{
		Type:    model.TemplateTypeEmail,
		Subject: "Your ((document)) is ready",
		Content: "Hello",
	}
	_, err = svc.Validate(context.Background(), "svc-1", up.ID, tmpl, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document")
}

func TestValidateRowLimit(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStore(), &fakeSeeder{})
	up := stageUpload(t, svc, "phone number\r\n+15551230001\r\n+15551230002\r\n+15551230003")

	tmpl := &model.Template{Type: model.TemplateTypeSMS, Content: "Hello"}
	_, err := svc.Validate(context.Background(), "svc-1", up.ID, tmpl, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than the limit")
}

func TestValidateQuotedHeaderColumns(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeStore(), &fakeSeeder{})
	up := stageUpload(t, svc, "\"Phone Number\",\"Name\"\r\n+15551230001,Alice")

	tmpl := &model.Template{Type: model.TemplateTypeSMS, Content: "Hello ((name))"}
	checked, err := svc.Validate(context.Background(), "svc-1", up.ID, tmpl, 1000)
	require.NoError(t, err)
	assert.True(t, checked.Valid)
}
