package service

import (
	"context"
	"strings"
	"testing"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLService_SignedUpload(t *testing.T) {
	env := setupEnv(t)
	svc := NewSignedURLService(env.store, env.facilities, 0)
	ctx := context.Background()

	grant, err := svc.SignedUpload(ctx, env.staffIdentity(), SignedUploadRequest{
		FileName: "before.jpg", ContentType: "image/jpeg", Folder: "cleaning/FAC001/2024-03-15/トイレ/before",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(grant.Path, "cleaning/FAC001/2024-03-15/トイレ/before/"))
	assert.Contains(t, grant.UploadURL, "method=PUT")
	assert.Equal(t, env.store.PublicURL(grant.Path), grant.FileURL)
	assert.False(t, grant.ExpiresAt.IsZero())

	tests := []struct {
		name string
		req  SignedUploadRequest
		want error
	}{
		{"traversal", SignedUploadRequest{FileName: "a.jpg", ContentType: "image/jpeg", Folder: "cleaning/../secrets"}, ErrInvalidFolder},
		{"unknown root", SignedUploadRequest{FileName: "a.jpg", ContentType: "image/jpeg", Folder: "tmp/x"}, ErrInvalidFolder},
		{"unknown type", SignedUploadRequest{FileName: "a.exe", ContentType: "application/x-msdownload", Folder: "cleaning/FAC001"}, ErrInvalidFileType},
		{"other company", SignedUploadRequest{FileName: "a.jpg", ContentType: "image/jpeg", Folder: "cleaning/FAC101/2024-03-15"}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignedUpload(ctx, env.staffIdentity(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = svc.SignedUpload(ctx, env.clientIdentity(), SignedUploadRequest{
		FileName: "a.jpg", ContentType: "image/jpeg", Folder: "cleaning/FAC001/2024-03-15",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSignedURLService_SignedRead(t *testing.T) {
	env := setupEnv(t)
	svc := NewSignedURLService(env.store, env.facilities, 0)
	img := uploadOne(t, env, env.imageService(nil), env.record(t), string(model.Before))

	grant, err := svc.SignedRead(context.Background(), env.clientIdentity(), img.GCSURL)
	require.NoError(t, err)
	assert.Contains(t, grant.URL, "method=GET")

	_, err = svc.SignedRead(context.Background(), env.branchAccount(), img.ObjectPath)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSignedURLService_SignedReadRejectsTraversal(t *testing.T) {
	env := setupEnv(t)
	svc := NewSignedURLService(env.store, env.facilities, 0)
	img := uploadOne(t, env, env.imageService(nil), env.record(t), string(model.Before))
	rest := strings.TrimPrefix(img.ObjectPath, "cleaning/FAC001/")
	require.NotEqual(t, img.ObjectPath, rest)

	for _, p := range []string{
		"cleaning/FAC101/../FAC001/" + rest,
		"cleaning/FAC101/./../FAC001/" + rest,
		"cleaning//FAC001/" + rest,
		"/cleaning/FAC001/" + rest,
	} {
		_, err := svc.SignedRead(context.Background(), env.branchAccount(), p)
		assert.Error(t, err, p)
		assert.NotErrorIs(t, err, ErrStorageUnavailable, p)
	}

	_, err := svc.SignedRead(context.Background(), env.clientIdentity(), "cleaning/FAC001/../FAC101/"+rest)
	assert.ErrorIs(t, err, ErrInvalidFolder)
}
