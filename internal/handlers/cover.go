// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"blogapi/internal/apperr"
	"blogapi/internal/middleware"
	"blogapi/internal/render"
	"blogapi/internal/service"
)

// maxCoverSize is the largest accepted cover image.
const maxCoverSize = 5 << 20

// coverField is the multipart field carrying the image.
const coverField = "cover"

// allowedCoverTypes are the image types accepted as covers.
var allowedCoverTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// UploadCover replaces a post's cover with the uploaded image.
func (h *Posts) UploadCover(w http.ResponseWriter, r *http.Request) {
	up, err := readCover(w, r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	ctx := r.Context()
	p, err := h.posts.SetCover(ctx, middleware.ActorFromCtx(ctx), chi.URLParam(r, "id"), *up)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, presentPost(opRetrieve, p))
}

// DeleteCover removes a post's cover.
func (h *Posts) DeleteCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.posts.ClearCover(ctx, middleware.ActorFromCtx(ctx), chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, presentPost(opRetrieve, p))
}

// readCover extracts the cover image from a multipart request and checks
// its size and sniffed content type.
func readCover(w http.ResponseWriter, r *http.Request) (*service.CoverUpload, error) {
	tooLarge := apperr.Statusf(http.StatusRequestEntityTooLarge,
		"File too large. Maximum size is %s.", humanize.IBytes(maxCoverSize))

	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize+64<<10)
	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge
		}
		return nil, apperr.Field(coverField, "The submitted data was not a file. Check the encoding type on the form.")
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile(coverField)
	if err != nil {
		return nil, apperr.Field(coverField, "No file was submitted.")
	}
	defer file.Close()

	if header.Size > maxCoverSize {
		return nil, tooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, maxCoverSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apperr.Field(coverField, "The submitted file is empty.")
	}
	if len(data) > maxCoverSize {
		return nil, tooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedCoverTypes...) {
		slog.Debug("cover rejected", "filename", header.Filename, "detected", mtype.String())
		return nil, apperr.Field(coverField,
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	return &service.CoverUpload{
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}
