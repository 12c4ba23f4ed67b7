package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"careguide/internal/delivery/dto"
	"careguide/internal/delivery/http/middleware"
	"careguide/internal/domain/entity"
	"careguide/internal/usecase"
	"careguide/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type stubProfileUsecase struct {
	rows      []entity.Profile
	profile   *entity.Profile
	err       error
	deleted   uuid.UUID
	uploaded  []byte
	updateReq *dto.UpdateProfileRequest
}

func (s *stubProfileUsecase) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfileUsecase) GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfileUsecase) RoleOf(ctx context.Context, userID uuid.UUID) (entity.Role, error) {
	if s.profile == nil {
		return "", usecase.ErrProfileNotFound
	}
	return s.profile.Role, nil
}

func (s *stubProfileUsecase) ListByRole(ctx context.Context, role entity.Role, city, speciality string) ([]entity.Profile, error) {
	return s.rows, s.err
}

func (s *stubProfileUsecase) ListDirectory(ctx context.Context) ([]entity.Profile, error) {
	return s.rows, s.err
}

func (s *stubProfileUsecase) Update(ctx context.Context, caller *entity.Principal, profileID uuid.UUID, req *dto.UpdateProfileRequest) (*entity.Profile, error) {
	s.updateReq = req
	return s.profile, s.err
}

func (s *stubProfileUsecase) UpdateOwn(ctx context.Context, caller *entity.Principal, req *dto.UpdateProfileRequest) (*entity.Profile, error) {
	if caller == nil {
		return nil, usecase.ErrNotAuthenticated
	}
	s.updateReq = req
	return s.profile, s.err
}

func (s *stubProfileUsecase) Delete(ctx context.Context, caller *entity.Principal, profileID uuid.UUID) error {
	s.deleted = profileID
	return s.err
}

func (s *stubProfileUsecase) UploadPhoto(ctx context.Context, caller *entity.Principal, file io.Reader) (*entity.Profile, error) {
	data, _ := io.ReadAll(file)
	s.uploaded = data
	return s.profile, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func doctorRows() []entity.Profile {
	return []entity.Profile{
		{ID: uuid.New(), FullName: strPtr("Jane Doe"), Email: "jane@example.com", Role: entity.RoleDoctor, City: strPtr("Austin"), Speciality: strPtr("cardiology")},
		{ID: uuid.New(), FullName: strPtr("John Smith"), Email: "john@example.com", Role: entity.RoleDoctor, City: strPtr("Dallas"), Speciality: strPtr("neurology")},
	}
}

func TestDirectoryFiltersByCity(t *testing.T) {
	h := NewDirectoryHandler(&stubProfileUsecase{rows: doctorRows()})

	rec := httptest.NewRecorder()
	h.Directory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/directory?city=austin", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	decode(t, rec, &env)
	var data dto.DirectoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))

	require.Len(t, data.Doctors, 1)
	assert.Equal(t, "Jane Doe", *data.Doctors[0].FullName)
	assert.Equal(t, []string{"Austin", "Dallas"}, data.Cities)

	rec = httptest.NewRecorder()
	h.Directory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/directory?city=Dallas&search=jane", nil))
	decode(t, rec, &env)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Empty(t, data.Doctors)
}

func TestAdminListSearchesEmail(t *testing.T) {
	h := NewDirectoryHandler(&stubProfileUsecase{rows: doctorRows()})

	rec := httptest.NewRecorder()
	h.ListDoctors(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/doctors?search=john@", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	decode(t, rec, &env)
	var data dto.DirectoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Doctors, 1)
	assert.Equal(t, "john@example.com", data.Doctors[0].Email)
}

func TestDeleteDoctorRow(t *testing.T) {
	stub := &stubProfileUsecase{}
	h := NewDirectoryHandler(stub)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/doctors/"+id.String(), nil)
	req = mux.SetURLVars(req, map[string]string{"id": id.String()})
	rec := httptest.NewRecorder()
	h.DeleteDoctorRow(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, stub.deleted)

	stub.err = usecase.ErrNotAuthorized
	rec = httptest.NewRecorder()
	h.DeleteDoctorRow(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateMyProfile(t *testing.T) {
	stub := &stubProfileUsecase{profile: &entity.Profile{ID: uuid.New(), Role: entity.RoleDoctor}}
	h := NewProfileHandler(stub, validator.NewValidator())
	body := `{"city":"Austin","years_of_experience":"12"}`

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/profiles/me", strings.NewReader(body))
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &entity.Principal{UserID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.UpdateMyProfile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.updateReq)
	assert.Equal(t, "Austin", *stub.updateReq.City)
	assert.Equal(t, "12", *stub.updateReq.YearsOfExperience)
	assert.Nil(t, stub.updateReq.FullName)
}

func TestUpdateMyProfileErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{usecase.ErrNotAuthorized, http.StatusForbidden},
		{usecase.ErrProfileNotFound, http.StatusNotFound},
		{entity.ErrInvalidAvailability, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewProfileHandler(&stubProfileUsecase{err: tt.err}, validator.NewValidator())
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/profiles/me", strings.NewReader(`{}`))
			req = req.WithContext(middleware.WithPrincipal(req.Context(), &entity.Principal{UserID: uuid.New()}))
			rec := httptest.NewRecorder()
			h.UpdateMyProfile(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func multipartBody(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadPhoto(t *testing.T) {
	stub := &stubProfileUsecase{profile: &entity.Profile{ID: uuid.New(), ProfilePhotoURL: strPtr("https://cdn/x.jpg")}}
	h := NewProfileHandler(stub, validator.NewValidator())

	body, contentType := multipartBody(t, "file", []byte("image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/me/photo", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &entity.Principal{UserID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.UploadPhoto(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("image-bytes"), stub.uploaded)
}

func TestUploadPhotoRequiresFileField(t *testing.T) {
	h := NewProfileHandler(&stubProfileUsecase{}, validator.NewValidator())

	body, contentType := multipartBody(t, "avatar", []byte("image-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/me/photo", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadPhoto(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := NewHealthHandler(log, map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"database": "up", "redis": "up"}, resp.Checks)

	h = NewHealthHandler(log, map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"storage":  func(ctx context.Context) error { return errors.New("bucket missing") },
	})
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "down", resp.Checks["storage"])
}
