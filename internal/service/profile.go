package service

import (
	"context"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/target/storefront-go/internal/apiclient"
	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/validation"
)

const maxAvatarBytes = 5 << 20

// ProfileSession is what ProfileService needs from the session.
type ProfileSession interface {
	SessionReader
	UpdateUser(ctx context.Context, u auth.User) error
}

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Session ProfileSession // Required: API access and cached profile
}

// ProfileService reads and edits the caller's profile. Every successful write replaces
// the session's cached user.
type ProfileService struct {
	session ProfileSession
}

// NewProfileService constructs a ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	if opts.Session == nil {
		panic("ProfileService requires a non-nil Session")
	}
	return &ProfileService{session: opts.Session}
}

// Get fetches the profile from the API.
func (s *ProfileService) Get(ctx context.Context) (auth.User, error) {
	var u auth.User
	if err := s.session.Client().Get(ctx, pathMe, nil, &u); err != nil {
		return auth.User{}, err
	}
	return u, nil
}

// Update replaces the editable profile fields (PUT). Username is required.
func (s *ProfileService) Update(ctx context.Context, in model.ProfileInput) (auth.User, error) {
	if in.Username == nil {
		return auth.User{}, validation.Required("username", "")
	}
	return s.write(ctx, http.MethodPut, in)
}

// Patch changes only the non-nil fields.
func (s *ProfileService) Patch(ctx context.Context, in model.ProfileInput) (auth.User, error) {
	return s.write(ctx, http.MethodPatch, in)
}

func (s *ProfileService) write(ctx context.Context, method string, in model.ProfileInput) (auth.User, error) {
	if err := validation.Struct(in); err != nil {
		return auth.User{}, err
	}
	var u auth.User
	err := s.session.Client().Call(ctx, apiclient.Request{Method: method, Path: pathMe, Body: in}, &u)
	if err != nil {
		return auth.User{}, err
	}
	return u, s.session.UpdateUser(ctx, u)
}

// UploadAvatar replaces the profile picture with a multipart PATCH.
func (s *ProfileService) UploadAvatar(ctx context.Context, filename string, data []byte) (auth.User, error) {
	if err := validation.Required("profile_picture", filename); err != nil {
		return auth.User{}, err
	}
	if len(data) == 0 {
		return auth.User{}, apperrors.ValidationField("profile_picture", "The submitted file is empty.")
	}
	if len(data) > maxAvatarBytes {
		return auth.User{}, apperrors.ValidationField("profile_picture", "The image must be 5 MB or smaller.")
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	req := apiclient.Request{
		Method: http.MethodPatch,
		Path:   pathMe,
		Multipart: &apiclient.Multipart{
			Files: []apiclient.File{{
				Field:       "profile_picture",
				Filename:    filepath.Base(filename),
				ContentType: contentType,
				Data:        data,
			}},
		},
	}
	var u auth.User
	if err := s.session.Client().Call(ctx, req, &u); err != nil {
		return auth.User{}, err
	}
	return u, s.session.UpdateUser(ctx, u)
}
